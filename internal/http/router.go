package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/docqa-backend/internal/http/handlers"
	httpMW "github.com/yungbote/docqa-backend/internal/http/middleware"
	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// RequestTimeout bounds every /api request context.
	RequestTimeout time.Duration

	Metrics     *observability.Metrics
	RateLimiter *httpMW.RateLimiter
	IngestAuth  *httpMW.IngestAuth

	HealthHandler  *httpH.HealthHandler
	ChatHandler    *httpH.ChatHandler
	SessionHandler *httpH.SessionHandler
	IngestHandler  *httpH.IngestHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestData())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	api.Use(httpMW.Timeout(cfg.RequestTimeout))
	{
		if cfg.HealthHandler != nil {
			api.GET("/health", cfg.HealthHandler.Health)
		}
	}

	limited := api.Group("/")
	{
		limited.Use(cfg.RateLimiter.Middleware())

		// Sessions
		if cfg.SessionHandler != nil {
			limited.POST("/sessions", cfg.SessionHandler.Create)
			limited.GET("/sessions/:id/history", cfg.SessionHandler.History)
		}

		// Question answering
		if cfg.ChatHandler != nil {
			limited.POST("/chat", cfg.ChatHandler.Chat)
			limited.POST("/search", cfg.ChatHandler.Search)
			limited.POST("/selected-text-question", cfg.ChatHandler.SelectedTextQuestion)
		}

		// Ingestion
		if cfg.IngestHandler != nil {
			ingest := limited.Group("/ingest")
			ingest.Use(cfg.IngestAuth.RequireToken())
			ingest.POST("", cfg.IngestHandler.Ingest)
			ingest.POST("/docs", cfg.IngestHandler.IngestDocs)
		}
	}

	return r
}
