package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/docqa-backend/internal/data/repos/chat"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type ChatSessionRepo = chat.ChatSessionRepo
type UserQueryRepo = chat.UserQueryRepo
type ResponseRepo = chat.ResponseRepo

var ErrConflict = chat.ErrConflict

const DefaultHistoryLimit = chat.DefaultHistoryLimit

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return chat.NewChatSessionRepo(db, baseLog)
}
func NewUserQueryRepo(db *gorm.DB, baseLog *logger.Logger) UserQueryRepo {
	return chat.NewUserQueryRepo(db, baseLog)
}
func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return chat.NewResponseRepo(db, baseLog)
}
