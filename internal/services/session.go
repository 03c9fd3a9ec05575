package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/docqa-backend/internal/data/repos"
	types "github.com/yungbote/docqa-backend/internal/domain"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
	"github.com/yungbote/docqa-backend/internal/pkg/pointers"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

// History is a session with its most recent queries, newest first.
type History struct {
	Session *types.ChatSession `json:"session"`
	Queries []*types.UserQuery `json:"queries"`
}

type SessionService interface {
	Create(dbc dbctx.Context, userID string, metadata map[string]any) (*types.ChatSession, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error)
	// Resolve returns the session named by rawID, creating one when rawID is
	// blank or unknown.
	Resolve(dbc dbctx.Context, rawID, userID string) (*types.ChatSession, error)
	History(dbc dbctx.Context, id uuid.UUID, limit int) (*History, error)
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.ChatSession, error)
	Persistent() bool
}

type sessionService struct {
	log      *logger.Logger
	sessions repos.ChatSessionRepo
	queries  repos.UserQueryRepo
}

// NewSessionService accepts nil repos. Sessions are then ephemeral: ids are
// issued but nothing is stored and history is unavailable.
func NewSessionService(baseLog *logger.Logger, sessions repos.ChatSessionRepo, queries repos.UserQueryRepo) SessionService {
	s := &sessionService{log: baseLog.With("service", "SessionService"), sessions: sessions, queries: queries}
	if !s.Persistent() {
		s.log.Warn("Database not configured; chat history is disabled")
	}
	return s
}

func (s *sessionService) Persistent() bool { return s.sessions != nil && s.queries != nil }

func (s *sessionService) Create(dbc dbctx.Context, userID string, metadata map[string]any) (*types.ChatSession, error) {
	row := &types.ChatSession{SessionID: uuid.New(), IsActive: true}
	if u := strings.TrimSpace(userID); u != "" {
		row.UserID = pointers.String(u)
	}
	if !s.Persistent() {
		return row, nil
	}
	created, err := s.sessions.Create(dbc, row)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := s.sessions.UpdateMetadata(dbc, created.SessionID, metadata); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (s *sessionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error) {
	if !s.Persistent() {
		return nil, errDatabaseUnavailable("get_session")
	}
	return s.sessions.GetByID(dbc, id)
}

func (s *sessionService) Resolve(dbc dbctx.Context, rawID, userID string) (*types.ChatSession, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return s.Create(dbc, userID, nil)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.Rejected("session_id", "invalid session ID format")
	}
	if !s.Persistent() {
		return &types.ChatSession{SessionID: id, IsActive: true}, nil
	}
	session, err := s.sessions.GetByID(dbc, id)
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.Info("Unknown session, creating a new one", "session_id", rawID)
		return s.Create(dbc, userID, nil)
	}
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(dbc, session.SessionID); err != nil {
		s.log.Warn("Failed to touch session", "session_id", rawID, "error", err)
	}
	return session, nil
}

func (s *sessionService) History(dbc dbctx.Context, id uuid.UUID, limit int) (*History, error) {
	if !s.Persistent() {
		return nil, errDatabaseUnavailable("history")
	}
	session, err := s.sessions.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	queries, err := s.queries.ListBySession(dbc, id, limit)
	if err != nil {
		return nil, err
	}
	return &History{Session: session, Queries: queries}, nil
}

func (s *sessionService) ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.ChatSession, error) {
	if !s.Persistent() {
		return nil, errDatabaseUnavailable("list_sessions")
	}
	return s.sessions.ListByUser(dbc, userID, limit)
}

func errDatabaseUnavailable(op string) error {
	return apperr.Unavailable("database", op, false, fmt.Errorf("database not configured"))
}
