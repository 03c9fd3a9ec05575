package ingestion

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const (
	DefaultEmbedBatchSize   = 96
	DefaultEmbedConcurrency = 4
)

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Index interface {
	Upsert(ctx context.Context, chunks []knowledge.Chunk, embeddings [][]float32) error
}

// documentDeleter is implemented by indexes that can drop the chunks a
// re-ingest no longer produces.
type documentDeleter interface {
	DeleteDocument(ctx context.Context, documentID string, keep []string) error
}

type IndexerOptions struct {
	BatchSize     int
	Concurrency   int
	EmbedProvider string
	IndexProvider string
}

// Indexer embeds chunks in bounded concurrent batches and upserts them.
type Indexer struct {
	log      *logger.Logger
	embedder Embedder
	index    Index
	opts     IndexerOptions
}

func NewIndexer(log *logger.Logger, embedder Embedder, index Index, opts IndexerOptions) (*Indexer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embedder == nil || index == nil {
		return nil, fmt.Errorf("embedder and index required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultEmbedBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultEmbedConcurrency
	}
	if opts.EmbedProvider == "" {
		opts.EmbedProvider = "embedding"
	}
	if opts.IndexProvider == "" {
		opts.IndexProvider = "vector_index"
	}
	return &Indexer{log: log.With("service", "Indexer"), embedder: embedder, index: index, opts: opts}, nil
}

// IndexChunks stores every chunk or returns the first failure. Batches
// already upserted stay stored; ids are deterministic so a retry is safe.
func (ix *Indexer) IndexChunks(ctx context.Context, chunks []knowledge.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batches := batchChunks(chunks, ix.opts.BatchSize)

	var indexed int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Concurrency)
	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, ch := range batch {
				texts[i] = ch.Content
			}
			vecs, err := ix.embedder.Embed(gctx, texts)
			if err != nil {
				return apperr.Classify(ix.opts.EmbedProvider, "embed", err)
			}
			if len(vecs) != len(batch) {
				return apperr.Unavailable(ix.opts.EmbedProvider, "embed", false,
					fmt.Errorf("got %d embeddings for %d inputs", len(vecs), len(batch)))
			}
			if err := ix.index.Upsert(gctx, batch, vecs); err != nil {
				return apperr.Classify(ix.opts.IndexProvider, "upsert", err)
			}
			atomic.AddInt32(&indexed, int32(len(batch)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ix.log.Error("Indexing failed", "indexed", atomic.LoadInt32(&indexed), "total", len(chunks), "error", err)
		return err
	}
	ix.log.Info("Indexed chunks", "chunks", len(chunks), "batches", len(batches))
	return nil
}

// PruneDocument removes the chunks of a document whose ids are not in keep,
// when the index supports it.
func (ix *Indexer) PruneDocument(ctx context.Context, documentID string, keep []string) error {
	d, ok := ix.index.(documentDeleter)
	if !ok || documentID == "" {
		return nil
	}
	if err := d.DeleteDocument(ctx, documentID, keep); err != nil {
		return apperr.Classify(ix.opts.IndexProvider, "delete_document", err)
	}
	return nil
}

func batchChunks(chunks []knowledge.Chunk, size int) [][]knowledge.Chunk {
	out := make([][]knowledge.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		out = append(out, chunks[start:end])
	}
	return out
}
