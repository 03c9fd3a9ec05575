package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	"github.com/yungbote/docqa-backend/internal/http/response"
	"github.com/yungbote/docqa-backend/internal/platform/ctxutil"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/services"
)

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), chat: chat}
}

type chatReq struct {
	Message      string `json:"message"`
	SessionID    string `json:"session_id"`
	SelectedText string `json:"selected_text"`
	TopK         int    `json:"top_k"`
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if !bindJSON(c, &req) {
		return
	}
	userID := ""
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		userID = rd.UserID
	}
	res, err := h.chat.Chat(c.Request.Context(), services.ChatRequest{
		Message:      req.Message,
		SessionID:    req.SessionID,
		SelectedText: req.SelectedText,
		TopK:         req.TopK,
		UserID:       userID,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, res)
}

type selectedTextReq struct {
	SelectedText string `json:"selected_text"`
	Question     string `json:"question"`
	SessionID    string `json:"session_id"`
}

// POST /api/selected-text-question
func (h *ChatHandler) SelectedTextQuestion(c *gin.Context) {
	var req selectedTextReq
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.chat.SelectedTextQuestion(c.Request.Context(), services.SelectedTextRequest{
		SelectedText: req.SelectedText,
		Question:     req.Question,
		SessionID:    req.SessionID,
	})
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"response":   res.Response,
		"session_id": res.SessionID,
		"sources":    res.Sources,
		"validation": res.Validation,
	})
}

type searchReq struct {
	Query        string `json:"query"`
	TopK         int    `json:"top_k"`
	SelectedText string `json:"selected_text"`
}

type searchResult struct {
	ChunkID         string  `json:"chunk_id"`
	Content         string  `json:"content"`
	Title           string  `json:"title"`
	SourcePath      string  `json:"source_path"`
	Chapter         string  `json:"chapter"`
	Section         string  `json:"section"`
	Score           float64 `json:"score"`
	SimilarityScore float64 `json:"similarity_score"`
}

// POST /api/search
func (h *ChatHandler) Search(c *gin.Context) {
	var req searchReq
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.chat.Search(c.Request.Context(), req.Query, req.TopK, req.SelectedText)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": toSearchResults(results)})
}

func toSearchResults(results []knowledge.RetrievalResult) []searchResult {
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		out = append(out, searchResult{
			ChunkID:         r.ChunkID,
			Content:         r.Content,
			Title:           r.Title,
			SourcePath:      r.SourcePath,
			Chapter:         r.Chapter,
			Section:         r.Section,
			Score:           r.Score(),
			SimilarityScore: r.SimilarityScore,
		})
	}
	return out
}
