package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const (
	listTimeout = 30 * time.Second
	readTimeout = 2 * time.Minute
)

type ObjectAttrs struct {
	Key     string
	Size    int64
	Updated time.Time
}

// DocumentSource lists and reads source documents from Cloud Storage.
type DocumentSource interface {
	List(ctx context.Context, bucket, prefix string) ([]ObjectAttrs, error)
	Read(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)
	Close() error
}

type documentSource struct {
	log    *logger.Logger
	client *storage.Client
}

func NewDocumentSource(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (DocumentSource, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	log.Info("Document source initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost)
	return &documentSource{log: log.With("service", "GCSDocumentSource"), client: client}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadOnly))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (s *documentSource) List(ctx context.Context, bucket, prefix string) ([]ObjectAttrs, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []ObjectAttrs{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperr.Classify("gcs", "list", err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		out = append(out, ObjectAttrs{Key: attrs.Name, Size: attrs.Size, Updated: attrs.Updated})
	}
	return out, nil
}

// Read returns the whole object. Objects larger than maxBytes are refused
// rather than truncated.
func (s *documentSource) Read(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, key, apperr.ErrNotFound)
		}
		return nil, apperr.Classify("gcs", "read", err)
	}
	defer r.Close()
	if maxBytes > 0 && r.Attrs.Size > maxBytes {
		return nil, apperr.Rejected("document", fmt.Sprintf("gs://%s/%s is %d bytes, limit %d", bucket, key, r.Attrs.Size, maxBytes))
	}
	limit := maxBytes
	if limit <= 0 {
		limit = r.Attrs.Size
	}
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, apperr.Classify("gcs", "read", err)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, apperr.Rejected("document", fmt.Sprintf("gs://%s/%s exceeds %d bytes", bucket, key, maxBytes))
	}
	return raw, nil
}

func (s *documentSource) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// ParseURI splits gs://bucket/prefix. The prefix may be empty.
func ParseURI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "gs://")
	if !ok {
		return "", "", apperr.Rejected("source", fmt.Sprintf("%q is not a gs:// uri", uri))
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", apperr.Rejected("source", fmt.Sprintf("%q has no bucket", uri))
	}
	return bucket, prefix, nil
}

// IsURI reports whether source names a Cloud Storage location.
func IsURI(source string) bool {
	return strings.HasPrefix(strings.TrimSpace(source), "gs://")
}
