package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserQuery is one question asked within a session.
type UserQuery struct {
	QueryID       uuid.UUID                   `gorm:"type:uuid;primaryKey;column:query_id" json:"query_id"`
	SessionID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"session_id"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	SelectedText  *string                     `gorm:"type:text" json:"selected_text,omitempty"`
	Timestamp     time.Time                   `gorm:"not null;index" json:"timestamp"`
	ContextChunks datatypes.JSONSlice[string] `gorm:"column:context_chunks" json:"context_chunks"`

	Response *Response `gorm:"foreignKey:QueryID;references:QueryID" json:"response,omitempty"`
}

func (UserQuery) TableName() string { return "user_queries" }

func (q *UserQuery) BeforeCreate(tx *gorm.DB) error {
	if q.QueryID == uuid.Nil {
		q.QueryID = uuid.New()
	}
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now().UTC()
	}
	return nil
}
