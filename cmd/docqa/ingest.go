package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/docqa-backend/internal/app"
)

type ingestOptions struct {
	path          string
	method        string
	maxTokens     int
	overlapTokens int
	timeout       time.Duration
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Chunk, embed and index a documentation tree",
		Long: `Walks a local directory or a gs://bucket/prefix for Markdown files,
splits them into token-bounded chunks and upserts them into the vector index.
Re-running over unchanged files rewrites the same chunk ids.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "docs root or gs:// URI, overrides DOCS_PATH")
	f.StringVar(&opts.method, "method", "", "chunking method: tokens or sentences")
	f.IntVar(&opts.maxTokens, "max-tokens", 0, "tokens per chunk")
	f.IntVar(&opts.overlapTokens, "overlap", -1, "trailing overlap tokens per chunk")
	f.DurationVar(&opts.timeout, "timeout", 30*time.Minute, "overall ingestion deadline")
	return cmd
}

func runIngest(cmd *cobra.Command, root *rootOptions, opts *ingestOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if opts.path != "" {
		cfg.Ingest.DocsPath = opts.path
	}
	if opts.method != "" {
		cfg.Ingest.Method = opts.method
	}
	if opts.maxTokens > 0 {
		cfg.Ingest.MaxTokens = opts.maxTokens
	}
	if opts.overlapTokens >= 0 {
		cfg.Ingest.OverlapTokens = opts.overlapTokens
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	cmd.Printf("Ingesting %s...\n", cfg.Ingest.DocsPath)
	summary, err := application.Services.Ingest.IngestDocs(ctx)
	if err != nil {
		return err
	}
	application.Metrics.AddChunksProcessed("cli", summary.Chunks)
	cmd.Printf("Successfully processed %d document chunks from %d documents.\n", summary.Chunks, summary.Documents)
	for _, s := range summary.Skipped {
		cmd.Printf("  skipped: %s\n", s)
	}
	return nil
}
