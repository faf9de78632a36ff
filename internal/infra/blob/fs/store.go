// Package fs implements the blob store on a local directory. Each document has
// a JSON sidecar (key + ".meta") holding its content type and metadata.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"stocktake/internal/blob/core"
)

const (
	defaultRoot = "./stocktake-files"
	metaSuffix  = ".meta"
)

// Store implements core.Store using the local filesystem.
type Store struct {
	root string
}

// New returns a filesystem-backed blob store rooted at path, creating it if needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = defaultRoot
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: root}, nil
}

// Driver returns the blob driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// Root returns the directory documents are written under.
func (s *Store) Root() string { return s.root }

// sanitizeKey forbids traversal, absolute keys and keys that would collide with sidecars.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key contains '..'")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", fmt.Errorf("invalid key suffix %s", metaSuffix)
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *Store) pathFor(key string) (dataPath, metaPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(k))
	return dataPath, dataPath + metaSuffix, nil
}

type metaFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Put writes a new document. The data file is created exclusively so two
// writers racing for one key cannot both succeed.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o750); err != nil {
		return core.Info{}, err
	}
	file, err := os.OpenFile(dataPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if errors.Is(err, fs.ErrExist) {
		return core.Info{}, fmt.Errorf("blob %s: %w", key, core.ErrExists)
	}
	if err != nil {
		return core.Info{}, err
	}
	size, copyErr := io.Copy(file, r)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dataPath)
		return core.Info{}, errors.Join(copyErr, closeErr)
	}
	mf := metaFile{ContentType: opts.ContentType, Metadata: cloneMetadata(opts.Metadata), Size: size, CreatedAt: time.Now().UTC()}
	if err := writeMeta(metaPath, mf); err != nil {
		_ = os.Remove(dataPath)
		return core.Info{}, err
	}
	return s.info(key, dataPath, mf), nil
}

// Get opens the document for reading.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Info{}, nil, fmt.Errorf("blob %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	mf, err := readMeta(metaPath, file)
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, err
	}
	return s.info(key, dataPath, mf), file, nil
}

// Delete removes the document and its sidecar.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(metaPath)
	return true, nil
}

// List walks the root and returns documents whose key starts with prefix.
// Files dropped into the directory by hand are listed even without a sidecar.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, metaSuffix) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		file, err := os.Open(p)
		if err != nil {
			return err
		}
		mf, err := readMeta(p+metaSuffix, file)
		_ = file.Close()
		if err != nil {
			return err
		}
		infos = append(infos, s.info(key, p, mf))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a file:// URL; local files need no signing.
func (s *Store) PresignURL(_ context.Context, key string, _ core.SignedURLOptions) (string, error) {
	dataPath, _, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	return fileURL(dataPath), nil
}

func (s *Store) info(key, dataPath string, mf metaFile) core.Info {
	return core.Info{
		Key:          key,
		Size:         mf.Size,
		ContentType:  mf.ContentType,
		Metadata:     cloneMetadata(mf.Metadata),
		LastModified: mf.CreatedAt,
		URL:          fileURL(dataPath),
	}
}

func fileURL(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String()
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func writeMeta(p string, mf metaFile) error {
	b, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o640)
}

// readMeta loads the sidecar, synthesising one from the file when it is missing.
func readMeta(p string, data *os.File) (metaFile, error) {
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		st, statErr := data.Stat()
		if statErr != nil {
			return metaFile{}, statErr
		}
		return metaFile{Size: st.Size(), CreatedAt: st.ModTime().UTC()}, nil
	}
	if err != nil {
		return metaFile{}, err
	}
	var mf metaFile
	if err := json.Unmarshal(b, &mf); err != nil {
		return metaFile{}, fmt.Errorf("decode %s: %w", p, err)
	}
	return mf, nil
}
