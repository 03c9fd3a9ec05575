package services

import (
	"context"
	"fmt"

	"github.com/yungbote/docqa-backend/internal/chunking"
	"github.com/yungbote/docqa-backend/internal/ingestion"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type IngestService interface {
	IngestDocuments(ctx context.Context, docs []ingestion.Document, opts chunking.Options) (ingestion.Summary, error)
	// IngestDocs re-ingests the configured docs root.
	IngestDocs(ctx context.Context) (ingestion.Summary, error)
	DefaultOptions() chunking.Options
}

type ingestService struct {
	log      *logger.Logger
	pipeline *ingestion.Pipeline
	docsRoot string
	defaults chunking.Options
}

func NewIngestService(baseLog *logger.Logger, pipeline *ingestion.Pipeline, docsRoot string, defaults chunking.Options) (IngestService, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("ingestion pipeline required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &ingestService{
		log:      baseLog.With("service", "IngestService"),
		pipeline: pipeline,
		docsRoot: docsRoot,
		defaults: defaults,
	}, nil
}

func (s *ingestService) DefaultOptions() chunking.Options { return s.defaults }

func (s *ingestService) IngestDocuments(ctx context.Context, docs []ingestion.Document, opts chunking.Options) (ingestion.Summary, error) {
	return s.pipeline.IngestDocuments(ctx, docs, s.withDefaults(opts))
}

func (s *ingestService) IngestDocs(ctx context.Context) (ingestion.Summary, error) {
	s.log.Info("Ingesting docs", "root", s.docsRoot)
	return s.pipeline.IngestPath(ctx, s.docsRoot, s.defaults)
}

// withDefaults fills unset fields. An explicit zero overlap cannot be told
// apart from an unset one, so overlap falls back only with max_tokens.
func (s *ingestService) withDefaults(opts chunking.Options) chunking.Options {
	if opts.Method == "" {
		opts.Method = s.defaults.Method
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = s.defaults.MaxTokens
		if opts.OverlapTokens == 0 {
			opts.OverlapTokens = s.defaults.OverlapTokens
		}
	}
	return opts
}
