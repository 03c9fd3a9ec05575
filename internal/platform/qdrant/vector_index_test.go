package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const (
	testChunkA = "6f1c2d0e-8a55-5c1f-9d3b-0a4a1c2b3d4e"
	testChunkB = "7a2b3c4d-1e2f-5a6b-8c9d-0e1f2a3b4c5d"
)

func TestVectorIndexUpsertRequestShape(t *testing.T) {
	var captured map[string]any
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPut {
			t.Fatalf("method: want=%s got=%s", http.MethodPut, r.Method)
		}
		if r.URL.Path != "/collections/book_chunks/points" {
			t.Fatalf("path: want=%q got=%q", "/collections/book_chunks/points", r.URL.Path)
		}
		if r.URL.RawQuery != "wait=true" {
			t.Fatalf("query: want=%q got=%q", "wait=true", r.URL.RawQuery)
		}
		if got := r.Header.Get("api-key"); got != "secret" {
			t.Fatalf("api-key header: want=%q got=%q", "secret", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, map[string]any{"status": "completed"}), nil
	})

	err := s.Upsert(context.Background(), []knowledge.Chunk{
		testChunk(testChunkA, "ROS 2 nodes talk over topics."),
		testChunk(testChunkB, "Gazebo simulates the robot."),
	}, [][]float32{{1, 0, 0}, {0, 1, 0}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	points, ok := captured["points"].([]any)
	if !ok {
		t.Fatalf("points type: got=%T", captured["points"])
	}
	if len(points) != 2 {
		t.Fatalf("points length: want=2 got=%d", len(points))
	}
	first := points[0].(map[string]any)
	if first["id"] != testChunkA {
		t.Fatalf("point id: want=%q got=%v", testChunkA, first["id"])
	}
	payload := first["payload"].(map[string]any)
	if payload["content"] != "ROS 2 nodes talk over topics." {
		t.Fatalf("payload content: got=%v", payload["content"])
	}
	if payload["source_path"] != "module-1/nodes.md" {
		t.Fatalf("payload source_path: got=%v", payload["source_path"])
	}
	meta := payload["metadata"].(map[string]any)
	if meta["method"] != "tokens" {
		t.Fatalf("payload metadata.method: got=%v", meta["method"])
	}
	if s.locks.size() != 0 {
		t.Fatalf("upsert locks leaked: got=%d", s.locks.size())
	}
}

func TestVectorIndexUpsertValidation(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		return nil, nil
	})
	ctx := context.Background()

	err := s.Upsert(ctx, []knowledge.Chunk{testChunk(testChunkA, "x")}, nil)
	assertOpCode(t, err, OperationErrorValidation)

	err = s.Upsert(ctx, []knowledge.Chunk{testChunk("not-a-uuid", "x")}, [][]float32{{1, 2, 3}})
	assertOpCode(t, err, OperationErrorValidation)

	err = s.Upsert(ctx, []knowledge.Chunk{testChunk(testChunkA, "x")}, [][]float32{{1, 2}})
	assertOpCode(t, err, OperationErrorDimensionMismatch)
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("dimension mismatch should be a configuration error: %v", err)
	}

	if err := s.Upsert(ctx, nil, nil); err != nil {
		t.Fatalf("empty upsert: want nil got=%v", err)
	}
}

func TestVectorIndexSearchShapesResultsAndFilter(t *testing.T) {
	var captured map[string]any
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/book_chunks/points/search" {
			t.Fatalf("path: want=%q got=%q", "/collections/book_chunks/points/search", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return okResponse(t, []map[string]any{
			{"id": testChunkB, "score": 0.40, "payload": payloadFromChunk(testChunk(testChunkB, "second"))},
			{"id": testChunkA, "score": 0.90, "payload": payloadFromChunk(testChunk(testChunkA, "first"))},
		}), nil
	})

	selected := strings.Repeat("a", 150)
	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 5, selected)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results length: want=2 got=%d", len(results))
	}
	if results[0].ChunkID != testChunkA || results[1].ChunkID != testChunkB {
		t.Fatalf("ordering: got=%v", knowledge.ChunkIDs(results))
	}
	if results[0].SimilarityScore != 0.90 {
		t.Fatalf("score: want=0.90 got=%v", results[0].SimilarityScore)
	}
	if results[0].Content != "first" || results[0].Chapter != "module-1" {
		t.Fatalf("payload fields: got=%+v", results[0].Chunk)
	}
	if captured["limit"] != float64(5) {
		t.Fatalf("limit: want=5 got=%v", captured["limit"])
	}

	filter := captured["filter"].(map[string]any)
	cond := filter["must"].([]any)[0].(map[string]any)
	text := cond["match"].(map[string]any)["text"].(string)
	if len(text) != SelectedTextFilterRunes {
		t.Fatalf("filter prefix length: want=%d got=%d", SelectedTextFilterRunes, len(text))
	}
}

func TestVectorIndexSearchWithoutSelectionSendsNoFilter(t *testing.T) {
	var captured map[string]any
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		return okResponse(t, []map[string]any{}), nil
	})
	results, err := s.Search(context.Background(), []float32{1, 0, 0}, 3, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results: want=0 got=%d", len(results))
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("filter: want absent got=%v", captured["filter"])
	}
}

func TestVectorIndexSearchRejectsUnknownPayload(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, []map[string]any{
			{"id": testChunkA, "score": 0.5, "payload": map[string]any{"text": "legacy", "chunk_id": testChunkA}},
		}), nil
	})
	_, err := s.Search(context.Background(), []float32{1, 0, 0}, 3, "")
	assertOpCode(t, err, OperationErrorDecodeFailed)
}

func TestVectorIndexSearchDimensionMismatch(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request")
		return nil, nil
	})
	_, err := s.Search(context.Background(), []float32{1, 0}, 3, "")
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("errors.Is(ErrConfiguration): want=true got=false err=%v", err)
	}
}

func TestVectorIndexSearchEngineDimensionErrorIsConfiguration(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		return rawResponse(http.StatusBadRequest, `{"status":{"error":"Wrong input: Vector dimension error: expected dim: 4, got 3"}}`), nil
	})
	_, err := s.Search(context.Background(), []float32{1, 0, 0}, 3, "")
	assertOpCode(t, err, OperationErrorDimensionMismatch)
}

func TestVectorIndexEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var calls []string
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/book_chunks":
			return rawResponse(http.StatusNotFound, `{"status":{"error":"Not found: Collection book_chunks doesn't exist!"}}`), nil
		case r.Method == http.MethodPut && r.URL.Path == "/collections/book_chunks":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			vectors := body["vectors"].(map[string]any)
			if vectors["size"] != float64(3) || vectors["distance"] != "Cosine" {
				t.Fatalf("create body: got=%v", body)
			}
			return okResponse(t, true), nil
		case r.Method == http.MethodPut && r.URL.Path == "/collections/book_chunks/index":
			return okResponse(t, map[string]any{"status": "completed"}), nil
		}
		t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		return nil, nil
	})
	s.ensured = false

	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if err := s.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection (second): %v", err)
	}
	want := []string{
		"GET /collections/book_chunks",
		"PUT /collections/book_chunks",
		"PUT /collections/book_chunks/index",
		"PUT /collections/book_chunks/index",
	}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Fatalf("calls: want=%v got=%v", want, calls)
	}
}

func TestVectorIndexEnsureCollectionSizeMismatch(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, map[string]any{
			"config": map[string]any{"params": map[string]any{"vectors": map[string]any{"size": 1536, "distance": "Cosine"}}},
		}), nil
	})
	s.ensured = false

	err := s.EnsureCollection(context.Background())
	assertOpCode(t, err, OperationErrorDimensionMismatch)
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("size mismatch should be a configuration error")
	}
	if s.ensured {
		t.Fatalf("ensured: want=false after failure")
	}
}

func TestVectorIndexGetByIDNotFound(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/book_chunks/points/"+testChunkA {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		return rawResponse(http.StatusNotFound, `{"status":{"error":"Not found: Point with id does not exists!"}}`), nil
	})
	_, err := s.GetByID(context.Background(), testChunkA)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("errors.Is(ErrNotFound): want=true got=false err=%v", err)
	}

	_, err = s.GetByID(context.Background(), "bogus")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("non-uuid id: want not found got=%v", err)
	}
}

func TestVectorIndexGetByID(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, map[string]any{"id": testChunkA, "payload": payloadFromChunk(testChunk(testChunkA, "hello"))}), nil
	})
	c, err := s.GetByID(context.Background(), testChunkA)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if c.ChunkID != testChunkA || c.Content != "hello" {
		t.Fatalf("chunk: got=%+v", c)
	}
}

func TestVectorIndexDeleteDedupes(t *testing.T) {
	var captured map[string]any
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/collections/book_chunks/points/delete" {
			t.Fatalf("path: got=%q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		return okResponse(t, map[string]any{"status": "completed"}), nil
	})
	if err := s.Delete(context.Background(), []string{testChunkA, testChunkA, " ", testChunkB}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	points := captured["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("points length: want=2 got=%d", len(points))
	}
}

func TestVectorIndexDeleteDocumentKeepsFreshPoints(t *testing.T) {
	var captured map[string]any
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		return okResponse(t, map[string]any{"status": "completed"}), nil
	})
	if err := s.DeleteDocument(context.Background(), "doc-1", []string{testChunkA, " "}); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	filter, ok := captured["filter"].(map[string]any)
	if !ok {
		t.Fatalf("filter: want object got=%T", captured["filter"])
	}
	mustNot, ok := filter["must_not"].([]any)
	if !ok || len(mustNot) != 1 {
		t.Fatalf("must_not: got=%v", filter["must_not"])
	}
	ids := mustNot[0].(map[string]any)["has_id"].([]any)
	if len(ids) != 1 || ids[0] != testChunkA {
		t.Fatalf("has_id: want=[%s] got=%v", testChunkA, ids)
	}
}

func TestVectorIndexDeleteDocumentRejectsBadKeepID(t *testing.T) {
	var calls int32
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return okResponse(t, map[string]any{"status": "completed"}), nil
	})
	err := s.DeleteDocument(context.Background(), "doc-1", []string{"not-a-uuid"})
	assertOpCode(t, err, OperationErrorValidation)
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("requests: want=0 got=%d", calls)
	}
}

func TestVectorIndexDeleteDocumentWaitsForUpsertOfSameDocument(t *testing.T) {
	var calls int32
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return okResponse(t, map[string]any{"status": "completed"}), nil
	})
	unlock := s.locks.lock([]string{documentLockKey("doc-1")})
	done := make(chan error, 1)
	go func() { done <- s.DeleteDocument(context.Background(), "doc-1", nil) }()

	select {
	case err := <-done:
		t.Fatalf("delete finished while document was locked: err=%v", err)
	case <-time.After(20 * time.Millisecond):
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("requests while locked: want=0 got=%d", calls)
	}
	unlock()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("DeleteDocument: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("delete did not resume after unlock")
	}
}

func TestVectorIndexCount(t *testing.T) {
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		return okResponse(t, map[string]any{"count": 42}), nil
	})
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 42 {
		t.Fatalf("count: want=42 got=%d", n)
	}
}

func TestVectorIndexTransportErrorIsRetryableUnavailable(t *testing.T) {
	var n int32
	s := newTestVectorIndex(t, func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&n, 1)
		return nil, context.DeadlineExceeded
	})
	_, err := s.Search(context.Background(), []float32{1, 0, 0}, 3, "")
	assertOpCode(t, err, OperationErrorTimeout)
	if errors.Is(err, apperr.ErrConfiguration) {
		t.Fatalf("timeout must not be a configuration error")
	}
	if atomic.LoadInt32(&n) != 1 {
		t.Fatalf("requests: want=1 (no internal retry) got=%d", n)
	}
}

func TestClassifyHTTPCallErrorTransport(t *testing.T) {
	err := classifyHTTPCallError("search", "transport", fmt.Errorf("boom"))
	assertOpCode(t, err, OperationErrorTransportFailed)
}

func newTestVectorIndex(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *vectorIndex {
	t.Helper()
	s, err := newVectorIndex(newTestLogger(t), Config{
		URL:        "http://qdrant.local",
		APIKey:     "secret",
		Collection: "book_chunks",
		VectorDim:  3,
		Distance:   "Cosine",
	}, &http.Client{Transport: roundTripFunc(roundTrip)})
	if err != nil {
		t.Fatalf("newVectorIndex: %v", err)
	}
	s.ensured = true
	return s
}

func testChunk(id, content string) knowledge.Chunk {
	return knowledge.Chunk{
		ChunkID:    id,
		Content:    content,
		DocumentID: "doc-1",
		Title:      "Nodes",
		Chapter:    "module-1",
		Section:    "nodes",
		SourcePath: "module-1/nodes.md",
		Metadata:   knowledge.ChunkMetadata{ChunkIndex: 0, TotalChunks: 1, Method: "tokens"},
	}
}

func assertOpCode(t *testing.T, err error, want OperationErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	var oe *OperationError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OperationError, got=%T (%v)", err, err)
	}
	if oe.Code != want {
		t.Fatalf("error code: want=%q got=%q", want, oe.Code)
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() {
		log.Sync()
	})
	return log
}

func okResponse(t *testing.T, result any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"result": result,
		"status": "ok",
		"time":   0.001,
	})
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

func rawResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
