package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/openai"
	"github.com/yungbote/docqa-backend/internal/platform/qdrant"
)

// instrumentedVectorIndex records a span and metrics for every index call.
type instrumentedVectorIndex struct {
	inner   qdrant.VectorIndex
	metrics *observability.Metrics
}

func instrumentVectorIndex(inner qdrant.VectorIndex, metrics *observability.Metrics) qdrant.VectorIndex {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorIndex{inner: inner, metrics: metrics}
}

func (s *instrumentedVectorIndex) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "vector_index."+op, append(attrs, attribute.String("db.system", "qdrant"))...)
	return ctx, func(err error) {
		s.metrics.ObserveVectorIndexOperation(op, err, time.Since(start))
		observability.EndSpan(span, err)
	}
}

func (s *instrumentedVectorIndex) EnsureCollection(ctx context.Context) (err error) {
	ctx, done := s.observe(ctx, "ensure_collection")
	defer func() { done(err) }()
	return s.inner.EnsureCollection(ctx)
}

func (s *instrumentedVectorIndex) Upsert(ctx context.Context, chunks []knowledge.Chunk, embeddings [][]float32) (err error) {
	ctx, done := s.observe(ctx, "upsert", attribute.Int("vector_index.points", len(chunks)))
	defer func() { done(err) }()
	return s.inner.Upsert(ctx, chunks, embeddings)
}

func (s *instrumentedVectorIndex) Search(ctx context.Context, query []float32, topK int, selectedText string) (out []knowledge.RetrievalResult, err error) {
	ctx, done := s.observe(ctx, "search",
		attribute.Int("vector_index.top_k", topK),
		attribute.Bool("vector_index.text_filter", selectedText != ""),
	)
	defer func() { done(err) }()
	return s.inner.Search(ctx, query, topK, selectedText)
}

func (s *instrumentedVectorIndex) GetByID(ctx context.Context, chunkID string) (out knowledge.Chunk, err error) {
	ctx, done := s.observe(ctx, "get")
	defer func() { done(err) }()
	return s.inner.GetByID(ctx, chunkID)
}

func (s *instrumentedVectorIndex) Delete(ctx context.Context, chunkIDs []string) (err error) {
	ctx, done := s.observe(ctx, "delete", attribute.Int("vector_index.points", len(chunkIDs)))
	defer func() { done(err) }()
	return s.inner.Delete(ctx, chunkIDs)
}

func (s *instrumentedVectorIndex) DeleteDocument(ctx context.Context, documentID string, keep []string) (err error) {
	ctx, done := s.observe(ctx, "delete_document", attribute.Int("vector_index.kept_points", len(keep)))
	defer func() { done(err) }()
	return s.inner.DeleteDocument(ctx, documentID, keep)
}

func (s *instrumentedVectorIndex) Count(ctx context.Context) (n int, err error) {
	ctx, done := s.observe(ctx, "count")
	defer func() { done(err) }()
	return s.inner.Count(ctx)
}

func (s *instrumentedVectorIndex) Ready(ctx context.Context) (err error) {
	ctx, done := s.observe(ctx, "ready")
	defer func() { done(err) }()
	return s.inner.Ready(ctx)
}

// instrumentedClient records a span and metrics for embedding and
// generation calls.
type instrumentedClient struct {
	openai.Client
	metrics *observability.Metrics
}

func instrumentClient(inner openai.Client, metrics *observability.Metrics) openai.Client {
	if inner == nil {
		return nil
	}
	return &instrumentedClient{Client: inner, metrics: metrics}
}

func (c *instrumentedClient) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs,
		attribute.String("llm.provider", c.Provider()),
		attribute.String("llm.model", c.Model()),
	)
	ctx, span := observability.StartSpan(ctx, "provider."+op, attrs...)
	return ctx, func(err error) {
		c.metrics.ObserveProvider(c.Provider(), op, err, time.Since(start))
		observability.EndSpan(span, err)
	}
}

func (c *instrumentedClient) Embed(ctx context.Context, inputs []string) (out [][]float32, err error) {
	ctx, done := c.observe(ctx, "embed", attribute.Int("llm.inputs", len(inputs)))
	defer func() { done(err) }()
	return c.Client.Embed(ctx, inputs)
}

func (c *instrumentedClient) Generate(ctx context.Context, system, user string) (out openai.Completion, err error) {
	ctx, done := c.observe(ctx, "generate")
	defer func() { done(err) }()
	return c.Client.Generate(ctx, system, user)
}

func (c *instrumentedClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	out, err := c.Generate(ctx, system, user)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
