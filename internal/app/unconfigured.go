package app

import (
	"context"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	"github.com/yungbote/docqa-backend/internal/platform/openai"
	"github.com/yungbote/docqa-backend/internal/platform/qdrant"
)

// unconfiguredClient stands in for a provider whose configuration is missing
// or invalid. Every call fails with the configuration error, so the feature
// degrades instead of preventing boot.
type unconfiguredClient struct {
	provider string
	err      error
}

func (c unconfiguredClient) Embed(context.Context, []string) ([][]float32, error) { return nil, c.err }
func (c unconfiguredClient) GenerateText(context.Context, string, string) (string, error) {
	return "", c.err
}
func (c unconfiguredClient) Generate(context.Context, string, string) (openai.Completion, error) {
	return openai.Completion{}, c.err
}
func (c unconfiguredClient) Provider() string { return c.provider }
func (c unconfiguredClient) Model() string    { return "" }

type unconfiguredIndex struct {
	err error
}

func (i unconfiguredIndex) EnsureCollection(context.Context) error { return i.err }
func (i unconfiguredIndex) Upsert(context.Context, []knowledge.Chunk, [][]float32) error {
	return i.err
}
func (i unconfiguredIndex) Search(context.Context, []float32, int, string) ([]knowledge.RetrievalResult, error) {
	return nil, i.err
}
func (i unconfiguredIndex) GetByID(context.Context, string) (knowledge.Chunk, error) {
	return knowledge.Chunk{}, i.err
}
func (i unconfiguredIndex) Delete(context.Context, []string) error       { return i.err }
func (i unconfiguredIndex) DeleteDocument(context.Context, string, []string) error { return i.err }
func (i unconfiguredIndex) Count(context.Context) (int, error)           { return 0, i.err }
func (i unconfiguredIndex) Ready(context.Context) error                  { return i.err }

var (
	_ openai.Client      = unconfiguredClient{}
	_ qdrant.VectorIndex = unconfiguredIndex{}
)
