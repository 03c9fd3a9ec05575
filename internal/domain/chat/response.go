package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Response is the generated answer to a UserQuery. ValidationResult holds the
// serialized groundedness verdict; SourceChunks holds chunk ids only.
type Response struct {
	ResponseID       uuid.UUID                   `gorm:"type:uuid;primaryKey;column:response_id" json:"response_id"`
	QueryID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"query_id"`
	Content          string                      `gorm:"type:text;not null" json:"content"`
	SourceChunks     datatypes.JSONSlice[string] `gorm:"column:source_chunks" json:"source_chunks"`
	ConfidenceScore  int                         `gorm:"not null;default:0" json:"confidence_score"`
	Timestamp        time.Time                   `gorm:"not null;index" json:"timestamp"`
	TokenCount       *int                        `json:"token_count,omitempty"`
	ValidationResult datatypes.JSON              `gorm:"column:validation_result" json:"validation_result,omitempty"`
}

func (Response) TableName() string { return "responses" }

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ResponseID == uuid.Nil {
		r.ResponseID = uuid.New()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	return nil
}
