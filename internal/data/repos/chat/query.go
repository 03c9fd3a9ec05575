package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/docqa-backend/internal/domain"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const DefaultHistoryLimit = 50

type UserQueryRepo interface {
	Create(dbc dbctx.Context, row *types.UserQuery) (*types.UserQuery, error)
	// ListBySession returns the newest queries first, each with its response.
	ListBySession(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.UserQuery, error)
	GetWithResponse(dbc dbctx.Context, queryID uuid.UUID) (*types.UserQuery, error)
}

type userQueryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserQueryRepo(db *gorm.DB, log *logger.Logger) UserQueryRepo {
	return &userQueryRepo{db: db, log: log.With("repo", "UserQueryRepo")}
}

func (r *userQueryRepo) tx(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db)
}

func (r *userQueryRepo) Create(dbc dbctx.Context, row *types.UserQuery) (*types.UserQuery, error) {
	if row == nil || row.SessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	if row.ContextChunks == nil {
		row.ContextChunks = []string{}
	}
	if err := r.tx(dbc).Omit("Response").Create(row).Error; err != nil {
		return nil, mapError("create user query", err)
	}
	return row, nil
}

func (r *userQueryRepo) ListBySession(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.UserQuery, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	if limit <= 0 || limit > 200 {
		limit = DefaultHistoryLimit
	}
	var out []*types.UserQuery
	if err := r.tx(dbc).
		Preload("Response").
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, mapError("list user queries", err)
	}
	return out, nil
}

func (r *userQueryRepo) GetWithResponse(dbc dbctx.Context, queryID uuid.UUID) (*types.UserQuery, error) {
	if queryID == uuid.Nil {
		return nil, fmt.Errorf("missing query_id")
	}
	var out types.UserQuery
	if err := r.tx(dbc).
		Preload("Response").
		Where("query_id = ?", queryID).
		Take(&out).Error; err != nil {
		return nil, mapError("get user query", err)
	}
	return &out, nil
}
