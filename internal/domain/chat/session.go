package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatSession groups the queries of one conversation.
type ChatSession struct {
	SessionID       uuid.UUID      `gorm:"type:uuid;primaryKey;column:session_id" json:"session_id"`
	UserID          *string        `gorm:"type:text;index" json:"user_id,omitempty"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	SessionMetadata datatypes.JSON `gorm:"column:session_metadata" json:"session_metadata,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.SessionID == uuid.Nil {
		s.SessionID = uuid.New()
	}
	return nil
}
