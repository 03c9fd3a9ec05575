package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/docqa-backend/internal/data/db"
	httpapi "github.com/yungbote/docqa-backend/internal/http"
	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Router   *gin.Engine

	shutdownOTel func(context.Context) error
}

// New wires the whole backend. Collaborators that are missing or unreachable
// degrade their features instead of failing boot.
func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdown := observability.InitOTel(ctx, log, cfg.OtelConfig())

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	var theDB *gorm.DB
	if dbCfg := cfg.DBConfig(); dbCfg.Configured() {
		theDB, err = db.Open(log, dbCfg)
		if err != nil {
			log.Warn("Database unavailable; sessions will not be persisted", "error", err)
			theDB = nil
		}
	} else {
		log.Warn("No database configured; sessions will not be persisted")
	}

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("wire clients: %w", err)
	}
	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, cfg, theDB, clients, reposet, metrics)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, fmt.Errorf("wire services: %w", err)
	}

	router, err := wireRouter(log, cfg, serviceset, metrics)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, fmt.Errorf("wire router: %w", err)
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           theDB,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Router:       router,
		shutdownOTel: shutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return httpapi.NewServer(a.Log, a.Cfg.HTTPAddr, a.Router).Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.shutdownOTel != nil {
		if err := a.shutdownOTel(context.Background()); err != nil && a.Log != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
		a.shutdownOTel = nil
	}
	a.Clients.Close()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
