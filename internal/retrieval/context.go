package retrieval

import (
	"fmt"
	"strings"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

const contextSeparator = "\n---\n"

// RenderContext formats results as the context block handed to generation.
func RenderContext(results []knowledge.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf(
			"Source: %s | Chapter: %s | Section: %s\nContent: %s\n",
			r.SourcePath, r.Chapter, r.Section, r.Content,
		))
	}
	return strings.Join(parts, contextSeparator)
}

// Chunks strips scores so results can be validated as plain chunks.
func Chunks(results []knowledge.RetrievalResult) []knowledge.Chunk {
	out := make([]knowledge.Chunk, 0, len(results))
	for _, r := range results {
		out = append(out, r.Chunk)
	}
	return out
}

// TopSimilarity returns the first result's similarity, or 0 when empty.
func TopSimilarity(results []knowledge.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].SimilarityScore
}
