package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewMockForTests returns a *Store whose HTTP transport is an in-memory fake
// bucket. It covers HEAD/GET/PUT/DELETE object and ListObjectsV2; pageSize
// limits how many keys one list page returns (0 means unlimited).
func NewMockForTests(pageSize int) *Store {
	rt := &mockTransport{objects: make(map[string]mockObject), pageSize: pageSize}
	cfg, _ := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(defaultRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String("https://mock.s3.local")
	})
	return newStore(client, "mock-bucket")
}

type mockObject struct {
	body        []byte
	contentType string
	metadata    map[string]string
}

type mockTransport struct {
	mu       sync.Mutex
	objects  map[string]mockObject
	pageSize int
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		return m.list(req), nil
	}
	switch req.Method {
	case http.MethodHead:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		return respond(http.StatusOK, nil, obj.headers()), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		md := map[string]string{}
		for name, values := range req.Header {
			if strings.HasPrefix(strings.ToLower(name), "x-amz-meta-") && len(values) > 0 {
				md[strings.ToLower(strings.TrimPrefix(strings.ToLower(name), "x-amz-meta-"))] = values[0]
			}
		}
		m.objects[key] = mockObject{body: body, contentType: req.Header.Get("Content-Type"), metadata: md}
		return respond(http.StatusOK, nil, http.Header{"ETag": {"\"etag\""}}), nil
	case http.MethodGet:
		obj, ok := m.objects[key]
		if !ok {
			return respond(http.StatusNotFound, nil, nil), nil
		}
		return respond(http.StatusOK, obj.body, obj.headers()), nil
	case http.MethodDelete:
		delete(m.objects, key)
		return respond(http.StatusNoContent, nil, nil), nil
	}
	return respond(http.StatusNotImplemented, nil, nil), nil
}

func (m *mockTransport) list(req *http.Request) *http.Response {
	prefix := req.URL.Query().Get("prefix")
	after := req.URL.Query().Get("continuation-token")
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) && k > after {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	truncated := m.pageSize > 0 && len(keys) > m.pageSize
	if truncated {
		keys = keys[:m.pageSize]
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult>`)
	fmt.Fprintf(&b, "<IsTruncated>%t</IsTruncated>", truncated)
	if truncated {
		fmt.Fprintf(&b, "<NextContinuationToken>%s</NextContinuationToken>", keys[len(keys)-1])
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(m.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	return respond(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

func (o mockObject) headers() http.Header {
	h := http.Header{
		"Content-Length": {strconv.Itoa(len(o.body))},
		"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
		"ETag":           {"\"etag\""},
	}
	if o.contentType != "" {
		h.Set("Content-Type", o.contentType)
	}
	for k, v := range o.metadata {
		h.Set("X-Amz-Meta-"+k, v)
	}
	return h
}

func respond(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

// decodeChunked unwraps a single-chunk aws-chunked payload: <hex>\r\n<body>\r\n0\r\n...
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[0], 16, 64)
	if err == nil && n == 0 {
		return []byte{}, true
	}
	if err != nil || int64(len(parts[1])) != n || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}
