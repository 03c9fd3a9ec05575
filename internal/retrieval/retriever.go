package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/docqa-backend/internal/cache"
	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, query []float32, topK int, selectedText string) ([]knowledge.RetrievalResult, error)
}

type Options struct {
	Ranker   *Ranker
	Cache    cache.Cache
	CacheTTL time.Duration
	// EmbedProvider and IndexProvider name the collaborators in errors.
	EmbedProvider string
	IndexProvider string
	// EmbedModel scopes cached query embeddings.
	EmbedModel string
}

type Retriever struct {
	log      *logger.Logger
	embedder Embedder
	index    Searcher
	opts     Options
}

func NewRetriever(log *logger.Logger, embedder Embedder, index Searcher, opts Options) (*Retriever, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embedder == nil || index == nil {
		return nil, fmt.Errorf("embedder and index required")
	}
	if opts.Ranker == nil {
		opts.Ranker = NewRanker()
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop()
	}
	if opts.EmbedProvider == "" {
		opts.EmbedProvider = "embedding"
	}
	if opts.IndexProvider == "" {
		opts.IndexProvider = "vector_index"
	}
	return &Retriever{
		log:      log.With("service", "Retriever"),
		embedder: embedder,
		index:    index,
		opts:     opts,
	}, nil
}

// Retrieve embeds the query, searches the index, ranks the candidates and
// returns at most topK of them with non-increasing composite scores.
// Provider failures surface as ServiceUnavailableError or
// ConfigurationError; an empty result is only returned when the index had
// nothing to offer.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, selectedText string) ([]knowledge.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Rejected("query", "must not be empty")
	}
	if topK <= 0 {
		return nil, apperr.Rejected("top_k", "must be positive")
	}

	searchKey := cache.Key("search", query, strconv.Itoa(topK), selectedText)
	var cached []knowledge.RetrievalResult
	if hit, err := r.opts.Cache.Get(ctx, searchKey, &cached); err != nil {
		r.log.Warn("Search cache read failed", "error", err)
	} else if hit {
		return cached, nil
	}

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	raw, err := r.index.Search(ctx, vec, topK, selectedText)
	if err != nil {
		return nil, apperr.Classify(r.opts.IndexProvider, "search", err)
	}

	ranked := r.opts.Ranker.Rank(raw)
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	if err := r.opts.Cache.Set(ctx, searchKey, ranked, r.opts.CacheTTL); err != nil {
		r.log.Warn("Search cache write failed", "error", err)
	}
	r.log.Debug("Retrieved chunks", "top_k", topK, "returned", len(ranked), "selected_text", selectedText != "")
	return ranked, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := cache.Key("embed", r.opts.EmbedModel, query)
	var vec []float32
	if hit, err := r.opts.Cache.Get(ctx, key, &vec); err != nil {
		r.log.Warn("Embedding cache read failed", "error", err)
	} else if hit && len(vec) > 0 {
		return vec, nil
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, apperr.Classify(r.opts.EmbedProvider, "embed", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, apperr.Unavailable(r.opts.EmbedProvider, "embed", false, fmt.Errorf("empty embedding for query"))
	}
	if err := r.opts.Cache.Set(ctx, key, vecs[0], r.opts.CacheTTL); err != nil {
		r.log.Warn("Embedding cache write failed", "error", err)
	}
	return vecs[0], nil
}
