package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/docqa-backend/internal/data/repos"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

type Repos struct {
	Sessions  repos.ChatSessionRepo
	Queries   repos.UserQueryRepo
	Responses repos.ResponseRepo
}

// wireRepos leaves every repo nil without a database; services treat that
// as ephemeral mode.
func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	if db == nil {
		return Repos{}
	}
	log.Info("Wiring repos...")
	return Repos{
		Sessions:  repos.NewChatSessionRepo(db, log),
		Queries:   repos.NewUserQueryRepo(db, log),
		Responses: repos.NewResponseRepo(db, log),
	}
}
