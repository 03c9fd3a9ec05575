package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docqa-backend/internal/chunking"
	"github.com/yungbote/docqa-backend/internal/http/response"
	"github.com/yungbote/docqa-backend/internal/ingestion"
	"github.com/yungbote/docqa-backend/internal/observability"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/services"
)

type IngestHandler struct {
	log     *logger.Logger
	ingest  services.IngestService
	metrics *observability.Metrics
}

func NewIngestHandler(log *logger.Logger, ingest services.IngestService, metrics *observability.Metrics) *IngestHandler {
	return &IngestHandler{log: log.With("handler", "IngestHandler"), ingest: ingest, metrics: metrics}
}

type ingestReq struct {
	Documents     []ingestion.Document `json:"documents"`
	Method        string               `json:"method"`
	MaxTokens     int                  `json:"max_tokens"`
	OverlapTokens int                  `json:"overlap_tokens"`
}

type ingestResp struct {
	Message         string   `json:"message"`
	ChunksProcessed int      `json:"chunks_processed"`
	Documents       int      `json:"documents"`
	Skipped         []string `json:"skipped,omitempty"`
}

// POST /api/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req ingestReq
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Documents) == 0 {
		response.RespondAppError(c, apperr.Rejected("documents", "cannot be empty"))
		return
	}
	summary, err := h.ingest.IngestDocuments(c.Request.Context(), req.Documents, chunking.Options{
		Method:        req.Method,
		MaxTokens:     req.MaxTokens,
		OverlapTokens: req.OverlapTokens,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	h.metrics.AddChunksProcessed("api", summary.Chunks)
	response.RespondOK(c, summaryResponse(summary))
}

// POST /api/ingest/docs
func (h *IngestHandler) IngestDocs(c *gin.Context) {
	summary, err := h.ingest.IngestDocs(c.Request.Context())
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	h.metrics.AddChunksProcessed("docs", summary.Chunks)
	response.RespondOK(c, summaryResponse(summary))
}

func summaryResponse(s ingestion.Summary) ingestResp {
	return ingestResp{
		Message:         fmt.Sprintf("Successfully processed %d document chunks", s.Chunks),
		ChunksProcessed: s.Chunks,
		Documents:       s.Documents,
		Skipped:         s.Skipped,
	}
}
