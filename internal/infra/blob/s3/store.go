// Package s3 implements the blob store on a single S3 / MinIO bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"stocktake/internal/blob/core"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultRegion = "us-east-1"
	defaultExpiry = 15 * time.Minute
)

// Store implements core.Store using an S3-compatible backend. Keys map to object keys directly.
type Store struct {
	client  *s3.Client
	bucket  string
	presign *s3.PresignClient
}

// Config holds explicit construction parameters. The CLI builds it from the environment.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional; if set enables custom endpoint (e.g. MinIO)
	PathStyle bool
}

// Environment variables:
//   STOCKTAKE_BLOB_DRIVER=s3
//   STOCKTAKE_BLOB_S3_BUCKET=<bucket> (required)
//   STOCKTAKE_BLOB_S3_REGION=<region> (default us-east-1)
//   STOCKTAKE_BLOB_S3_ENDPOINT=<url> (optional, for MinIO)
//   STOCKTAKE_BLOB_S3_PATH_STYLE=true|false (default false)
//   AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// New creates an S3 blob store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newStore(client, cfg.Bucket), nil
}

func newStore(client *s3.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket, presign: s3.NewPresignClient(client)}
}

// OpenFromEnv constructs an S3 store from process environment.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("STOCKTAKE_BLOB_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("STOCKTAKE_BLOB_S3_BUCKET required for s3 driver")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Region:    os.Getenv("STOCKTAKE_BLOB_S3_REGION"),
		Endpoint:  os.Getenv("STOCKTAKE_BLOB_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("STOCKTAKE_BLOB_S3_PATH_STYLE"), "true"),
	})
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string { return s.bucket }

func isNotFound(err error) bool {
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

// Put emulates create-only semantics with a HEAD before the upload. Two
// writers racing between HEAD and PUT both succeed; the last upload wins.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	_, err := s.head(ctx, key)
	if err == nil {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Info{}, err
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if opts.ContentType != "" {
		input.ContentType = &opts.ContentType
	}
	if len(opts.Metadata) > 0 {
		input.Metadata = opts.Metadata
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return core.Info{}, fmt.Errorf("put %s: %w", key, err)
	}
	return s.head(ctx, key)
}

// Get streams the object body; the caller closes it.
func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if isNotFound(err) {
		return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Info{}, nil, fmt.Errorf("get %s: %w", key, err)
	}
	return s.info(key, aws.ToInt64(out.ContentLength), out.ContentType, out.Metadata, out.LastModified), out.Body, nil
}

func (s *Store) head(ctx context.Context, key string) (core.Info, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if isNotFound(err) {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Info{}, fmt.Errorf("head %s: %w", key, err)
	}
	return s.info(key, aws.ToInt64(out.ContentLength), out.ContentType, out.Metadata, out.LastModified), nil
}

// Delete removes the object, reporting whether it existed beforehand.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.head(ctx, key); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	return true, nil
}

// List pages through ListObjectsV2 for prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			infos = append(infos, core.Info{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size), LastModified: aws.ToTime(obj.LastModified)})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a time-limited GET URL.
func (s *Store) PresignURL(ctx context.Context, key string, opts core.SignedURLOptions) (string, error) {
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key}, func(po *s3.PresignOptions) { po.Expires = expiry })
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return out.URL, nil
}

func (s *Store) info(key string, size int64, contentType *string, md map[string]string, lastModified *time.Time) core.Info {
	lm := time.Now().UTC()
	if lastModified != nil {
		lm = *lastModified
	}
	return core.Info{Key: key, Size: size, ContentType: aws.ToString(contentType), Metadata: md, LastModified: lm}
}
