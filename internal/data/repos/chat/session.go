package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/docqa-backend/internal/domain"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type ChatSessionRepo interface {
	Create(dbc dbctx.Context, row *types.ChatSession) (*types.ChatSession, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error)
	ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.ChatSession, error)
	UpdateMetadata(dbc dbctx.Context, id uuid.UUID, metadata map[string]any) error
	Touch(dbc dbctx.Context, id uuid.UUID) error
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, log *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: log.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) tx(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db)
}

func (r *chatSessionRepo) Create(dbc dbctx.Context, row *types.ChatSession) (*types.ChatSession, error) {
	if row == nil {
		row = &types.ChatSession{}
	}
	if row.UserID != nil && strings.TrimSpace(*row.UserID) == "" {
		row.UserID = nil
	}
	row.IsActive = true
	if err := r.tx(dbc).Create(row).Error; err != nil {
		return nil, mapError("create chat session", err)
	}
	return row, nil
}

func (r *chatSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChatSession, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing session_id")
	}
	var out types.ChatSession
	if err := r.tx(dbc).Where("session_id = ?", id).Take(&out).Error; err != nil {
		return nil, mapError("get chat session", err)
	}
	return &out, nil
}

func (r *chatSessionRepo) ListByUser(dbc dbctx.Context, userID string, limit int) ([]*types.ChatSession, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("missing user_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 10
	}
	var out []*types.ChatSession
	if err := r.tx(dbc).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, mapError("list chat sessions", err)
	}
	return out, nil
}

func (r *chatSessionRepo) UpdateMetadata(dbc dbctx.Context, id uuid.UUID, metadata map[string]any) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	res := r.tx(dbc).
		Model(&types.ChatSession{}).
		Where("session_id = ?", id).
		Updates(map[string]interface{}{
			"session_metadata": datatypes.JSON(raw),
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return mapError("update chat session", res.Error)
	}
	if res.RowsAffected == 0 {
		return mapError("update chat session", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *chatSessionRepo) Touch(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing session_id")
	}
	return mapError("touch chat session", r.tx(dbc).
		Model(&types.ChatSession{}).
		Where("session_id = ?", id).
		Update("updated_at", time.Now().UTC()).Error)
}
