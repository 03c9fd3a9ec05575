package app

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/docqa-backend/internal/chunking"
	"github.com/yungbote/docqa-backend/internal/data/db"
	"github.com/yungbote/docqa-backend/internal/ingestion"
	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/retrieval"
	"github.com/yungbote/docqa-backend/internal/services"
)

type Services struct {
	Sessions services.SessionService
	Chat     services.ChatService
	Ingest   services.IngestService
	Health   services.HealthService
}

func wireServices(log *logger.Logger, cfg Config, gdb *gorm.DB, clients Clients, reposet Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")
	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second

	var ranker *retrieval.Ranker
	if len(cfg.ChapterWeights) > 0 {
		ranker = retrieval.NewRanker(retrieval.ChapterWeight(cfg.ChapterWeights))
	}
	retriever, err := retrieval.NewRetriever(log, clients.Embedder, clients.Index, retrieval.Options{
		Ranker:        ranker,
		Cache:         clients.Cache,
		CacheTTL:      cacheTTL,
		EmbedProvider: clients.Embedder.Provider(),
		IndexProvider: "qdrant",
		EmbedModel:    clients.Embedder.Model(),
	})
	if err != nil {
		return Services{}, err
	}

	sessions := services.NewSessionService(log, reposet.Sessions, reposet.Queries)
	chat, err := services.NewChatService(log, retriever, clients.LLM, sessions, reposet.Queries, reposet.Responses, services.ChatOptions{
		Cache:       clients.Cache,
		CacheTTL:    cacheTTL,
		LLMProvider: clients.LLM.Provider(),
		Metrics:     metrics,
	})
	if err != nil {
		return Services{}, err
	}

	indexer, err := ingestion.NewIndexer(log, clients.Embedder, clients.Index, ingestion.IndexerOptions{
		BatchSize:     cfg.Ingest.BatchSize,
		Concurrency:   cfg.Ingest.Concurrency,
		EmbedProvider: clients.Embedder.Provider(),
		IndexProvider: "qdrant",
	})
	if err != nil {
		return Services{}, err
	}
	pipeline, err := ingestion.NewPipeline(log, chunking.New(clients.Tokenizer), indexer, ingestion.NewLoader(log, clients.Docs))
	if err != nil {
		return Services{}, err
	}
	ingest, err := services.NewIngestService(log, pipeline, cfg.Ingest.DocsPath, cfg.ChunkOptions())
	if err != nil {
		return Services{}, err
	}

	missing := append([]string(nil), clients.Missing...)
	if !cfg.Services()["database"] {
		missing = append(missing, "database")
	}
	return Services{
		Sessions: sessions,
		Chat:     chat,
		Ingest:   ingest,
		Health:   services.NewHealthService(log, healthProbes(cfg, gdb, clients), missing),
	}, nil
}

// healthProbes checks every configured collaborator. Provider probes spend
// quota, so they only run on deep checks.
func healthProbes(cfg Config, gdb *gorm.DB, clients Clients) []services.Probe {
	configured := cfg.Services()
	var probes []services.Probe
	if configured["qdrant"] {
		probes = append(probes, services.Probe{Name: "qdrant", Check: clients.Index.Ready})
	}
	if configured["database"] {
		probes = append(probes, services.Probe{Name: "database", Check: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		}})
	}
	if clients.Redis != nil {
		probes = append(probes, services.Probe{Name: "redis", Check: func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}})
	} else if configured["redis"] {
		probes = append(probes, services.Probe{Name: "redis", Check: func(context.Context) error {
			return errors.New("redis connection failed at startup")
		}})
	}
	if configured["embedding"] {
		probes = append(probes, services.Probe{Name: "embedding", Deep: true, Check: func(ctx context.Context) error {
			_, err := clients.Embedder.Embed(ctx, []string{"health check"})
			return err
		}})
	}
	if configured["llm"] {
		probes = append(probes, services.Probe{Name: "llm", Deep: true, Check: func(ctx context.Context) error {
			_, err := clients.LLM.Generate(ctx, "Reply with OK.", "ping")
			return err
		}})
	}
	return probes
}
