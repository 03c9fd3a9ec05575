package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docqa-backend/internal/services"
)

type HealthHandler struct {
	health services.HealthService
}

func NewHealthHandler(health services.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/health?deep=true
// Always 200; the body carries the per-service status.
func (h *HealthHandler) Health(c *gin.Context) {
	deep, _ := strconv.ParseBool(c.Query("deep"))
	c.JSON(http.StatusOK, h.health.Check(c.Request.Context(), deep))
}
