package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/docqa-backend/internal/cache"
	"github.com/yungbote/docqa-backend/internal/data/repos"
	types "github.com/yungbote/docqa-backend/internal/domain"
	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	"github.com/yungbote/docqa-backend/internal/observability"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
	"github.com/yungbote/docqa-backend/internal/pkg/pointers"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
	"github.com/yungbote/docqa-backend/internal/platform/openai"
	"github.com/yungbote/docqa-backend/internal/platform/promptstyle"
	"github.com/yungbote/docqa-backend/internal/retrieval"
	"github.com/yungbote/docqa-backend/internal/validation"
)

const (
	DefaultTopK = 5
	// SelectedTextChunkID marks the pseudo-source used when the user's
	// selection replaces retrieval.
	SelectedTextChunkID = "selected_text"
)

type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, selectedText string) ([]knowledge.RetrievalResult, error)
}

type Generator interface {
	Generate(ctx context.Context, system, user string) (openai.Completion, error)
}

type ChatRequest struct {
	Message      string
	SessionID    string
	SelectedText string
	TopK         int
	UserID       string
}

type SelectedTextRequest struct {
	SelectedText string
	Question     string
	SessionID    string
}

type Source struct {
	ChunkID    string `json:"chunk_id"`
	Title      string `json:"title"`
	SourcePath string `json:"source_path"`
	Chapter    string `json:"chapter"`
	Section    string `json:"section"`
}

// Validation is what gets stored with a response and returned to clients.
type Validation struct {
	API              validation.ResponseCheck     `json:"api_validation"`
	Grounding        *knowledge.ValidationVerdict `json:"grounding,omitempty"`
	SelectedText     *knowledge.ValidationVerdict `json:"selected_text_validation,omitempty"`
	ContentAvailable *bool                        `json:"content_available,omitempty"`
}

type ChatResult struct {
	Response        string     `json:"response"`
	SessionID       string     `json:"session_id"`
	QueryID         string     `json:"query_id,omitempty"`
	Sources         []Source   `json:"sources"`
	Confidence      float64    `json:"confidence"`
	ConfidenceScore int        `json:"confidence_score"`
	Validation      Validation `json:"validation"`
	Cached          bool       `json:"cached,omitempty"`
}

// answer is the cacheable part of a ChatResult.
type answer struct {
	Text         string            `json:"text"`
	SourceChunks []knowledge.Chunk `json:"source_chunks"`
	Validation   Validation        `json:"validation"`
	Confidence   float64           `json:"confidence"`
	TopSim       float64           `json:"top_similarity"`
	TokenCount   int               `json:"token_count"`
}

type ChatService interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	SelectedTextQuestion(ctx context.Context, req SelectedTextRequest) (*ChatResult, error)
	Search(ctx context.Context, query string, topK int, selectedText string) ([]knowledge.RetrievalResult, error)
}

type ChatOptions struct {
	Cache       cache.Cache
	CacheTTL    time.Duration
	LLMProvider string
	Metrics     *observability.Metrics
}

type chatService struct {
	log       *logger.Logger
	retriever Retriever
	generator Generator
	sessions  SessionService
	queries   repos.UserQueryRepo
	responses repos.ResponseRepo
	opts      ChatOptions
}

// NewChatService wires the question-answering pipeline. queries and responses
// may be nil, in which case nothing is persisted.
func NewChatService(
	baseLog *logger.Logger,
	retriever Retriever,
	generator Generator,
	sessions SessionService,
	queries repos.UserQueryRepo,
	responses repos.ResponseRepo,
	opts ChatOptions,
) (ChatService, error) {
	if baseLog == nil {
		return nil, fmt.Errorf("logger required")
	}
	if retriever == nil || generator == nil || sessions == nil {
		return nil, fmt.Errorf("retriever, generator and sessions required")
	}
	if opts.Cache == nil {
		opts.Cache = cache.Noop()
	}
	if opts.LLMProvider == "" {
		opts.LLMProvider = "llm"
	}
	return &chatService{
		log:       baseLog.With("service", "ChatService"),
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		queries:   queries,
		responses: responses,
		opts:      opts,
	}, nil
}

func (s *chatService) Search(ctx context.Context, query string, topK int, selectedText string) ([]knowledge.RetrievalResult, error) {
	query, err := validation.CheckQuery(query)
	if err != nil {
		return nil, err
	}
	if topK, err = validation.CheckTopK(topK, DefaultTopK); err != nil {
		return nil, err
	}
	if selectedText, err = validation.CheckSelectedText(selectedText); err != nil {
		return nil, err
	}
	return s.retriever.Retrieve(ctx, query, topK, selectedText)
}

func (s *chatService) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	message, err := validation.CheckMessage(req.Message)
	if err != nil {
		return nil, err
	}
	selected, err := validation.CheckSelectedText(req.SelectedText)
	if err != nil {
		return nil, err
	}
	topK, err := validation.CheckTopK(req.TopK, DefaultTopK)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	session, err := s.sessions.Resolve(dbc, req.SessionID, req.UserID)
	if err != nil {
		return nil, err
	}

	key := cache.Key("answer", message, selected, fmt.Sprint(topK))
	var ans answer
	hit, err := s.opts.Cache.Get(ctx, key, &ans)
	if err != nil {
		s.log.Warn("Answer cache read failed", "error", err)
	}
	s.opts.Metrics.ObserveCacheLookup(hit)
	if !hit {
		if strings.TrimSpace(selected) != "" {
			ans, err = s.answerFromSelection(ctx, message, selected)
		} else {
			ans, err = s.answerFromBook(ctx, message, topK)
		}
		if err != nil {
			return nil, err
		}
		if err := s.opts.Cache.Set(ctx, key, ans, s.opts.CacheTTL); err != nil {
			s.log.Warn("Answer cache write failed", "error", err)
		}
	}

	res := s.result(session.SessionID, ans)
	res.Cached = hit
	res.QueryID = s.persist(ctx, session.SessionID, message, selected, ans)
	return res, nil
}

func (s *chatService) SelectedTextQuestion(ctx context.Context, req SelectedTextRequest) (*ChatResult, error) {
	question, err := validation.CheckQuery(req.Question)
	if err != nil {
		return nil, err
	}
	selected, err := validation.CheckSelectedText(req.SelectedText)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(selected) == "" {
		return nil, apperr.Rejected("selected_text", "cannot be empty")
	}
	id, err := validation.CheckSessionID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apperr.Rejected("session_id", "cannot be empty")
	}

	session := &types.ChatSession{SessionID: id}
	if s.sessions.Persistent() {
		if session, err = s.sessions.Get(dbctx.Context{Ctx: ctx}, id); err != nil {
			return nil, err
		}
	}

	ans, err := s.answerFromSelection(ctx, question, selected)
	if err != nil {
		return nil, err
	}
	res := s.result(session.SessionID, ans)
	res.QueryID = s.persist(ctx, session.SessionID, question, selected, ans)
	return res, nil
}

func (s *chatService) answerFromBook(ctx context.Context, question string, topK int) (answer, error) {
	results, err := s.retriever.Retrieve(ctx, question, topK, "")
	if err != nil {
		return answer{}, err
	}
	chunks := retrieval.Chunks(results)
	contextText := retrieval.RenderContext(results)
	available := retrieval.CheckContentAvailability(contextText, question)

	ans := answer{SourceChunks: chunks, TopSim: retrieval.TopSimilarity(results), Validation: Validation{ContentAvailable: pointers.Ptr(available)}}
	if len(results) == 0 {
		// nothing to ground on; the model would only be able to refuse
		s.opts.Metrics.IncFallback("no_results")
		ans.Text = promptstyle.NotAvailable
		ans.Validation.API = validation.CheckResponse(ans.Text)
		verdict := s.validate(ctx, "context", ans.Text, validation.ChunkSupport(nil))
		ans.Validation.Grounding = &verdict
		ans.Confidence = verdict.Confidence
		return ans, nil
	}

	completion, err := s.generate(ctx, promptstyle.System(contextText, ""), promptstyle.User(question))
	if err != nil {
		return answer{}, err
	}
	ans.Text = completion.Text
	ans.TokenCount = completion.CompletionTokens

	ans.Validation.API = validation.CheckResponse(ans.Text)
	if !ans.Validation.API.IsValid {
		s.log.Warn("Response validation failed", "errors", ans.Validation.API.Errors)
		s.opts.Metrics.IncFallback("response_check")
		ans.Text = promptstyle.NotAvailable
	}
	verdict := s.validate(ctx, "context", ans.Text, validation.ChunkSupport(chunks))
	ans.Validation.Grounding = &verdict
	ans.Confidence = verdict.Confidence
	if !verdict.IsValid {
		s.log.Warn("Answer not grounded in retrieved context", "errors", verdict.Errors, "confidence", verdict.Confidence)
		s.opts.Metrics.IncFallback("ungrounded")
		ans.Text = promptstyle.NotAvailable
	}
	return ans, nil
}

// answerFromSelection answers from the selection alone. An ungrounded answer
// is logged and still returned; its verdict travels with it.
func (s *chatService) answerFromSelection(ctx context.Context, question, selected string) (answer, error) {
	completion, err := s.generate(ctx, promptstyle.System("", selected), promptstyle.User(question))
	if err != nil {
		return answer{}, err
	}
	ans := answer{
		Text:       completion.Text,
		TokenCount: completion.CompletionTokens,
	}
	ans.SourceChunks = []knowledge.Chunk{{
		ChunkID:    SelectedTextChunkID,
		Content:    selected,
		Title:      "Selected Text",
		SourcePath: SelectedTextChunkID,
		Chapter:    "Selected",
		Section:    "Selected",
	}}
	ans.Validation.API = validation.CheckResponse(ans.Text)
	if !ans.Validation.API.IsValid {
		s.log.Warn("Response validation failed", "errors", ans.Validation.API.Errors)
		s.opts.Metrics.IncFallback("response_check")
		ans.Text = promptstyle.NotAvailable
	}
	verdict := s.validate(ctx, "selected_text", ans.Text, validation.SelectedTextSupport(selected))
	ans.Validation.SelectedText = &verdict
	ans.Confidence = verdict.Confidence
	ans.TopSim = verdict.Confidence
	if !verdict.IsValid {
		s.log.Warn("Selected text response validation failed", "errors", verdict.Errors)
	} else {
		s.log.Info("Selected text response validation passed", "confidence", verdict.Confidence)
	}
	return ans, nil
}

func (s *chatService) validate(ctx context.Context, mode, text string, support validation.Support) knowledge.ValidationVerdict {
	_, span := observability.StartSpan(ctx, "validation.grounding", attribute.String("validation.mode", mode))
	verdict := validation.ValidateGrounding(text, support)
	span.SetAttributes(attribute.Bool("validation.valid", verdict.IsValid), attribute.Float64("validation.confidence", verdict.Confidence))
	observability.EndSpan(span, nil)
	s.opts.Metrics.ObserveValidation(mode, verdict.IsValid)
	return verdict
}

func (s *chatService) generate(ctx context.Context, system, user string) (openai.Completion, error) {
	completion, err := s.generator.Generate(ctx, system, user)
	if err != nil {
		return openai.Completion{}, apperr.Classify(s.opts.LLMProvider, "generate", err)
	}
	return completion, nil
}

func (s *chatService) result(sessionID uuid.UUID, ans answer) *ChatResult {
	sources := make([]Source, 0, len(ans.SourceChunks))
	for _, ch := range ans.SourceChunks {
		sources = append(sources, Source{
			ChunkID:    ch.ChunkID,
			Title:      ch.Title,
			SourcePath: ch.SourcePath,
			Chapter:    ch.Chapter,
			Section:    ch.Section,
		})
	}
	return &ChatResult{
		Response:        ans.Text,
		SessionID:       sessionID.String(),
		Sources:         sources,
		Confidence:      ans.Confidence,
		ConfidenceScore: ConfidenceScore(ans.TopSim),
		Validation:      ans.Validation,
	}
}

// persist stores the query and its response. History is best effort: a
// failure is logged and the answer is still returned.
func (s *chatService) persist(ctx context.Context, sessionID uuid.UUID, question, selected string, ans answer) string {
	if s.queries == nil || s.responses == nil || !s.sessions.Persistent() {
		return ""
	}
	dbc := dbctx.Context{Ctx: ctx}
	q := &types.UserQuery{
		SessionID:     sessionID,
		Content:       question,
		ContextChunks: chunkIDs(ans.SourceChunks),
	}
	if strings.TrimSpace(selected) != "" {
		q.SelectedText = &selected
	}
	q, err := s.queries.Create(dbc, q)
	if err != nil {
		s.log.Error("Failed to store query", "session_id", sessionID.String(), "error", err)
		return ""
	}

	raw, err := json.Marshal(ans.Validation)
	if err != nil {
		raw = []byte(`{}`)
	}
	row := &types.Response{
		QueryID:          q.QueryID,
		Content:          ans.Text,
		SourceChunks:     chunkIDs(ans.SourceChunks),
		ConfidenceScore:  ConfidenceScore(ans.TopSim),
		ValidationResult: datatypes.JSON(raw),
	}
	if ans.TokenCount > 0 {
		n := ans.TokenCount
		row.TokenCount = &n
	}
	if _, err := s.responses.Create(dbc, row); err != nil {
		s.log.Error("Failed to store response", "session_id", sessionID.String(), "error", err)
	}
	return q.QueryID.String()
}

// ConfidenceScore maps a score in [-1,1] onto the stored 0..100 scale.
func ConfidenceScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(1, score)) * 100))
}

func chunkIDs(chunks []knowledge.Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		out = append(out, ch.ChunkID)
	}
	return out
}
