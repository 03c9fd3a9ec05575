package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/gcp"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/validation"
)

var errNoRemote = apperr.Misconfigured("ingestion", "OBJECT_STORAGE_MODE", errors.New("no object storage source configured"))

// Loader reads markdown sources from a local directory or a gs:// prefix.
type Loader struct {
	log    *logger.Logger
	remote gcp.DocumentSource
}

// NewLoader accepts a nil remote; gs:// roots then fail with a configuration error.
func NewLoader(log *logger.Logger, remote gcp.DocumentSource) *Loader {
	return &Loader{log: log.With("service", "DocumentLoader"), remote: remote}
}

// IsMarkdown reports whether name has a .md or .mdx extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

// Load returns one Document per readable markdown file under root. Files that
// cannot be read are logged and skipped. A missing local root yields no documents.
func (l *Loader) Load(ctx context.Context, root string) ([]Document, error) {
	if gcp.IsURI(root) {
		return l.loadRemote(ctx, root)
	}
	return l.loadLocal(ctx, root)
}

func (l *Loader) loadLocal(ctx context.Context, root string) ([]Document, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Warn("Docs directory does not exist", "root", root)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var docs []Document
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			l.log.Warn("Skipping unreadable path", "path", p, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsMarkdown(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(p)
		if err == nil && len(raw) > validation.MaxDocumentBytes {
			err = fmt.Errorf("file is %d bytes, limit %d", len(raw), validation.MaxDocumentBytes)
		}
		if err != nil {
			l.log.Warn("Skipping document", "path", p, "error", err)
			return nil
		}
		docs = append(docs, MarkdownDocument(filepath.ToSlash(rel), raw))
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("Loaded local documents", "root", root, "documents", len(docs))
	return docs, nil
}

func (l *Loader) loadRemote(ctx context.Context, root string) ([]Document, error) {
	bucket, prefix, err := gcp.ParseURI(root)
	if err != nil {
		return nil, err
	}
	if l.remote == nil {
		return nil, fmt.Errorf("load %s: %w", root, errNoRemote)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	objs, err := l.remote.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var docs []Document
	for _, obj := range objs {
		if !IsMarkdown(obj.Key) {
			continue
		}
		raw, err := l.remote.Read(ctx, bucket, obj.Key, validation.MaxDocumentBytes)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.log.Warn("Skipping document", "bucket", bucket, "key", obj.Key, "error", err)
			continue
		}
		docs = append(docs, MarkdownDocument(strings.TrimPrefix(obj.Key, prefix), raw))
	}
	l.log.Info("Loaded remote documents", "bucket", bucket, "prefix", prefix, "documents", len(docs))
	return docs, nil
}
