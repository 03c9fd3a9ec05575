package domain

import (
	"github.com/yungbote/docqa-backend/internal/domain/chat"
	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

type (
	Chunk             = knowledge.Chunk
	ChunkMetadata     = knowledge.ChunkMetadata
	Provenance        = knowledge.Provenance
	RetrievalResult   = knowledge.RetrievalResult
	ValidationVerdict = knowledge.ValidationVerdict
	Sentences         = knowledge.Sentences

	ChatSession = chat.ChatSession
	UserQuery   = chat.UserQuery
	Response    = chat.Response
)

const (
	ChunkMethodTokens    = knowledge.MethodTokens
	ChunkMethodSentences = knowledge.MethodSentences
)

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{
		&chat.ChatSession{},
		&chat.UserQuery{},
		&chat.Response{},
	}
}
