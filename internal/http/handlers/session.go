package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docqa-backend/internal/data/repos"
	"github.com/yungbote/docqa-backend/internal/http/response"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
	"github.com/yungbote/docqa-backend/internal/platform/ctxutil"
	"github.com/yungbote/docqa-backend/internal/services"
	"github.com/yungbote/docqa-backend/internal/validation"
)

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type createSessionReq struct {
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata"`
}

// POST /api/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionReq
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			req.UserID = rd.UserID
		}
	}
	session, err := h.sessions.Create(dbctx.Context{Ctx: c.Request.Context()}, req.UserID, req.Metadata)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session_id": session.SessionID.String(), "session": session})
}

// GET /api/sessions/:id/history?limit=50
func (h *SessionHandler) History(c *gin.Context) {
	id, err := validation.CheckSessionID(c.Param("id"))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	limit := repos.DefaultHistoryLimit
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	history, err := h.sessions.History(dbctx.Context{Ctx: c.Request.Context()}, id, limit)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, history)
}
