package chat

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/docqa-backend/internal/domain"
	"github.com/yungbote/docqa-backend/internal/pkg/dbctx"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type ResponseRepo interface {
	Create(dbc dbctx.Context, row *types.Response) (*types.Response, error)
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, log *logger.Logger) ResponseRepo {
	return &responseRepo{db: db, log: log.With("repo", "ResponseRepo")}
}

// Create stores the single response of a query. A second response for the
// same query is a conflict.
func (r *responseRepo) Create(dbc dbctx.Context, row *types.Response) (*types.Response, error) {
	if row == nil || row.QueryID == uuid.Nil {
		return nil, fmt.Errorf("missing query_id")
	}
	if row.ConfidenceScore < 0 || row.ConfidenceScore > 100 {
		return nil, fmt.Errorf("confidence_score out of range: %d", row.ConfidenceScore)
	}
	if row.SourceChunks == nil {
		row.SourceChunks = []string{}
	}
	if err := dbc.DB(r.db).Create(row).Error; err != nil {
		return nil, mapError("create response", err)
	}
	return row, nil
}
