package qdrant

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

func TestVectorIndexIntegrationAgainstLocalQdrant(t *testing.T) {
	if !qdrantIntegrationEnabled() {
		t.Skip("set QDRANT_INTEGRATION=1 to run Qdrant integration tests")
	}

	baseURL := qdrantIntegrationURL()
	if err := waitForQdrantReady(baseURL); err != nil {
		t.Fatalf("qdrant not ready: %v", err)
	}

	collection := "docqa_it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	idx, err := newVectorIndex(newTestLogger(t), Config{
		URL:        baseURL,
		Collection: collection,
		VectorDim:  3,
		Distance:   "Cosine",
	}, nil)
	if err != nil {
		t.Fatalf("newVectorIndex: %v", err)
	}
	t.Cleanup(func() {
		req, _ := http.NewRequest(http.MethodDelete, baseURL+"/collections/"+collection, nil)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			_ = resp.Body.Close()
		}
	})

	ctx := context.Background()
	a := testChunk(uuid.NewSHA1(uuid.NameSpaceURL, []byte("a")).String(), "ROS 2 nodes publish messages on topics")
	b := testChunk(uuid.NewSHA1(uuid.NameSpaceURL, []byte("b")).String(), "Gazebo renders a simulated humanoid")
	if err := idx.Upsert(ctx, []knowledge.Chunk{a, b}, [][]float32{{1, 0, 0}, {0, 1, 0}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	// Re-upserting the same ids overwrites rather than appends.
	if err := idx.Upsert(ctx, []knowledge.Chunk{a}, [][]float32{{1, 0, 0}}); err != nil {
		t.Fatalf("Upsert (again): %v", err)
	}
	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Fatalf("Count: want=2 got=%d", n)
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 5, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].ChunkID != a.ChunkID {
		t.Fatalf("Search first id: want=%q got=%v", a.ChunkID, knowledge.ChunkIDs(results))
	}

	filtered, err := idx.Search(ctx, []float32{1, 0, 0}, 5, "Gazebo renders")
	if err != nil {
		t.Fatalf("Search filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ChunkID != b.ChunkID {
		t.Fatalf("Search filtered: want=[%s] got=%v", b.ChunkID, knowledge.ChunkIDs(filtered))
	}

	got, err := idx.GetByID(ctx, b.ChunkID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Content != b.Content {
		t.Fatalf("GetByID content: want=%q got=%q", b.Content, got.Content)
	}

	if err := idx.Delete(ctx, []string{a.ChunkID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := idx.GetByID(ctx, a.ChunkID); err == nil {
		t.Fatalf("GetByID after delete: expected not found")
	}
}

func qdrantIntegrationEnabled() bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv("QDRANT_INTEGRATION")))
	return raw == "1" || raw == "true" || raw == "yes"
}

func qdrantIntegrationURL() string {
	if url := strings.TrimSpace(os.Getenv("QDRANT_INTEGRATION_URL")); url != "" {
		return strings.TrimRight(url, "/")
	}
	if url := strings.TrimSpace(os.Getenv("QDRANT_URL")); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://127.0.0.1:6333"
}

func waitForQdrantReady(baseURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	readyURL := baseURL + "/readyz"
	var lastErr error
	for i := 0; i < 20; i++ {
		resp, err := client.Get(readyURL)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("status=%d", resp.StatusCode)
		} else {
			lastErr = err
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("ready check failed for %s: %w", readyURL, lastErr)
}
