package app

import (
	"time"

	"github.com/gin-gonic/gin"

	httpapi "github.com/yungbote/docqa-backend/internal/http"
	httpH "github.com/yungbote/docqa-backend/internal/http/handlers"
	httpMW "github.com/yungbote/docqa-backend/internal/http/middleware"
	"github.com/yungbote/docqa-backend/internal/observability"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, svcs Services, metrics *observability.Metrics) (*gin.Engine, error) {
	log.Info("Wiring router...")

	var limiter *httpMW.RateLimiter
	if cfg.RateLimit.Enabled {
		l, err := httpMW.NewRateLimiter(httpMW.RateLimitConfig{
			Requests: cfg.RateLimit.Requests,
			Window:   time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		}, metrics)
		if err != nil {
			return nil, err
		}
		limiter = l
	}

	ingestAuth := httpMW.NewIngestAuth(log, cfg.Ingest.JWTSecret)
	if !ingestAuth.Enabled() {
		log.Warn("INGEST_JWT_SECRET not set; ingest endpoints are open")
	}

	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.OtelConfig().ServiceName
	}

	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.ServiceTimeout(),
		Metrics:        metrics,
		RateLimiter:    limiter,
		IngestAuth:     ingestAuth,
		HealthHandler:  httpH.NewHealthHandler(svcs.Health),
		ChatHandler:    httpH.NewChatHandler(log, svcs.Chat),
		SessionHandler: httpH.NewSessionHandler(svcs.Sessions),
		IngestHandler:  httpH.NewIngestHandler(log, svcs.Ingest, metrics),
	}), nil
}
