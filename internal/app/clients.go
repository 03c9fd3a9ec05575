package app

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/docqa-backend/internal/cache"
	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/gcp"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/platform/openai"
	"github.com/yungbote/docqa-backend/internal/platform/qdrant"
	"github.com/yungbote/docqa-backend/internal/platform/redis"
	"github.com/yungbote/docqa-backend/internal/platform/tokenizer"
)

const ensureCollectionTimeout = 15 * time.Second

type Clients struct {
	Redis     *goredis.Client
	Cache     cache.Cache
	Index     qdrant.VectorIndex
	Embedder  openai.Client
	LLM       openai.Client
	Docs      gcp.DocumentSource
	Tokenizer tokenizer.Tokenizer

	// Missing lists collaborators that are not configured at all.
	Missing []string
}

// wireClients builds every external client. Providers without usable
// configuration are replaced by stand-ins that fail with the configuration
// error; only the tokenizer is required to boot.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	tk, err := tokenizer.New(tokenizer.DefaultEncoding)
	if err != nil {
		return Clients{}, err
	}
	c.Tokenizer = tk

	// Redis and cache
	c.Cache = cache.Noop()
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, log, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable; falling back to in-process cache", "error", err)
		} else {
			c.Redis = rdb
		}
	} else {
		c.Missing = append(c.Missing, "redis")
	}
	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		if c.Redis != nil {
			if rc, err := cache.NewRedis(log, c.Redis); err == nil {
				c.Cache = rc
			} else {
				log.Warn("Redis cache init failed", "error", err)
			}
		}
		if c.Redis == nil {
			c.Cache = cache.NewMemory(cfg.Cache.MemorySize, ttl)
		}
	}

	// Qdrant
	qcfg, err := cfg.QdrantConfig()
	if err != nil {
		log.Warn("Vector index not configured", "error", err)
		c.Index = unconfiguredIndex{err: err}
		c.Missing = append(c.Missing, "qdrant")
	} else {
		index, err := qdrant.NewVectorIndex(log, qcfg)
		if err != nil {
			return Clients{}, err
		}
		c.Index = instrumentVectorIndex(index, metrics)
		ensureCtx, cancel := context.WithTimeout(ctx, ensureCollectionTimeout)
		if err := c.Index.EnsureCollection(ensureCtx); err != nil {
			log.Warn("Could not ensure vector collection; will retry on first write", "error", err)
		}
		cancel()
	}

	// Embedding and generation providers
	c.Embedder = wireProvider(log, "embedding", cfg.EmbeddingConfig(), metrics, &c.Missing)
	c.LLM = wireProvider(log, "llm", cfg.LLMConfig(), metrics, &c.Missing)

	// Cloud Storage, only when documents live in a bucket
	if gcp.IsURI(cfg.Ingest.DocsPath) {
		scfg, err := cfg.ObjectStorageConfig()
		if err != nil {
			return Clients{}, err
		}
		docs, err := gcp.NewDocumentSource(ctx, log, scfg)
		if err != nil {
			return Clients{}, err
		}
		c.Docs = docs
	}
	return c, nil
}

func wireProvider(log *logger.Logger, name string, pcfg openai.Config, metrics *observability.Metrics, missing *[]string) openai.Client {
	client, err := openai.NewClient(log, pcfg)
	if err != nil {
		log.Warn("Provider not configured", "provider", name, "error", err)
		*missing = append(*missing, name)
		provider := pcfg.Provider
		if provider == "" {
			provider = name
		}
		return unconfiguredClient{provider: provider, err: err}
	}
	return instrumentClient(client, metrics)
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Docs != nil {
		_ = c.Docs.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
