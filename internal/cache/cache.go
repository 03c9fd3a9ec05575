// Package cache memoizes embeddings and search results. Values are stored as
// JSON so any backend can hold them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores JSON-encodable values by key. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Key builds a namespaced key from parts. Parts are hashed so that long
// queries and selected text stay within key size limits.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.Write([]byte{0})
		}
		_, _ = h.Write([]byte(p))
	}
	return "docqa:" + strings.TrimSpace(namespace) + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

type noop struct{}

// Noop never stores anything.
func Noop() Cache { return noop{} }

func (noop) Get(context.Context, string, any) (bool, error)           { return false, nil }
func (noop) Set(context.Context, string, any, time.Duration) error { return nil }
