package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mesh-intelligence/crediario/pkg/types"
)

// ObjectStore is a key/value blob store. Keys are slash-separated.
// Get returns an error wrapping types.ErrNotFound for a missing key.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// uploadTimeout bounds a single GCS upload.
const uploadTimeout = 2 * time.Minute

// GCSStore stores objects in one Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

var _ ObjectStore = (*GCSStore)(nil)

// NewGCSStore opens a client for bucket. Without options the client uses
// Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", types.ErrInvalidArgument)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w: %w", types.ErrStorageFailure, err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// CredentialsFile returns the client option for a service account key file,
// or nil options when path is empty.
func CredentialsFile(path string) []option.ClientOption {
	if path == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(path)}
}

// Put uploads data to key.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload gs://%s/%s: %w: %w", s.bucket, key, types.ErrStorageFailure, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload gs://%s/%s: %w: %w", s.bucket, key, types.ErrStorageFailure, err)
	}
	return nil
}

// Get downloads key.
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, key, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w: %w", s.bucket, key, types.ErrStorageFailure, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w: %w", s.bucket, key, types.ErrStorageFailure, err)
	}
	return data, nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// DirStore stores objects as files under a root directory.
type DirStore struct {
	root string
}

var _ ObjectStore = (*DirStore)(nil)

// NewDirStore returns a store rooted at root. The directory is created on
// the first Put.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Put writes data to root/key atomically. contentType is ignored.
func (s *DirStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("put %s: %w: %w", key, types.ErrStorageFailure, err)
	}
	if err := writeFileAtomic(p, data); err != nil {
		return fmt.Errorf("put %s: %w: %w", key, types.ErrStorageFailure, err)
	}
	return nil
}

// Get reads root/key.
func (s *DirStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("object %s: %w", key, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w: %w", key, types.ErrStorageFailure, err)
	}
	return data, nil
}

// path maps key to a file below root, rejecting keys that escape it.
func (s *DirStore) path(key string) (string, error) {
	clean := path.Clean(key)
	if key == "" || clean != key || path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: invalid object key %q", types.ErrInvalidArgument, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
