package ingestion

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/docqa-backend/internal/chunking"
	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/validation"
)

// Summary reports the outcome of one ingestion run.
type Summary struct {
	Documents int      `json:"documents"`
	Chunks    int      `json:"chunks_processed"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Pipeline chunks documents and indexes the chunks.
type Pipeline struct {
	log     *logger.Logger
	chunker *chunking.Chunker
	indexer *Indexer
	loader  *Loader
}

func NewPipeline(log *logger.Logger, chunker *chunking.Chunker, indexer *Indexer, loader *Loader) (*Pipeline, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if chunker == nil || indexer == nil {
		return nil, fmt.Errorf("chunker and indexer required")
	}
	return &Pipeline{log: log.With("service", "IngestionPipeline"), chunker: chunker, indexer: indexer, loader: loader}, nil
}

// ChunkDocuments chunks each document and skips the ones that fail
// validation. Invalid chunking options fail the whole call.
func (p *Pipeline) ChunkDocuments(docs []Document, opts chunking.Options) ([]knowledge.Chunk, Summary, error) {
	var (
		all     []knowledge.Chunk
		summary Summary
	)
	if err := opts.Validate(); err != nil {
		return nil, summary, err
	}
	for _, doc := range docs {
		content, err := validation.CheckDocument(doc.Content)
		if err == nil {
			var chunks []knowledge.Chunk
			chunks, err = p.chunker.ChunkDocument(content, doc.Provenance(), opts)
			if err == nil {
				all = append(all, chunks...)
				summary.Documents++
				continue
			}
		}
		p.log.Warn("Skipping document", "source_path", doc.SourcePath, "error", err)
		summary.Skipped = append(summary.Skipped, doc.SourcePath)
	}
	summary.Chunks = len(all)
	return all, summary, nil
}

// IngestDocuments replaces the indexed chunks of every given document. New
// chunks are stored before stale ones are pruned, so a failed run leaves the
// previous chunks in place.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []Document, opts chunking.Options) (Summary, error) {
	chunks, summary, err := p.ChunkDocuments(docs, opts)
	if err != nil {
		return summary, err
	}
	if err := p.indexer.IndexChunks(ctx, chunks); err != nil {
		return summary, err
	}

	var order []string
	fresh := map[string][]string{}
	for _, ch := range chunks {
		if _, ok := fresh[ch.DocumentID]; !ok {
			order = append(order, ch.DocumentID)
		}
		fresh[ch.DocumentID] = append(fresh[ch.DocumentID], ch.ChunkID)
	}
	for _, docID := range order {
		if err := p.indexer.PruneDocument(ctx, docID, fresh[docID]); err != nil {
			return summary, err
		}
	}
	p.log.Info("Ingestion finished", "documents", summary.Documents, "chunks", summary.Chunks, "skipped", len(summary.Skipped))
	return summary, nil
}

// IngestPath loads markdown from a directory or gs:// prefix and ingests it.
func (p *Pipeline) IngestPath(ctx context.Context, root string, opts chunking.Options) (Summary, error) {
	if p.loader == nil {
		return Summary{}, fmt.Errorf("document loader not configured")
	}
	docs, err := p.loader.Load(ctx, strings.TrimSpace(root))
	if err != nil {
		return Summary{}, err
	}
	if len(docs) == 0 {
		p.log.Warn("No documents found", "root", root)
		return Summary{}, nil
	}
	return p.IngestDocuments(ctx, docs, opts)
}
