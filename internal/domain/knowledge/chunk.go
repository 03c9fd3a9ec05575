package knowledge

import "strings"

// Chunking methods accepted by the chunker. Unknown methods fall back to MethodTokens.
const (
	MethodTokens    = "tokens"
	MethodSentences = "sentences"
)

// ChunkMetadata is fixed when a document is chunked and never mutated.
type ChunkMetadata struct {
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Method      string `json:"method"`
}

// Chunk is a bounded span of source text with a content-derived identifier and provenance.
type Chunk struct {
	ChunkID    string        `json:"chunk_id"`
	Content    string        `json:"content"`
	DocumentID string        `json:"document_id"`
	Title      string        `json:"title"`
	Chapter    string        `json:"chapter"`
	Section    string        `json:"section"`
	SourcePath string        `json:"source_path"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// Provenance is the document-level context attached to every chunk of a document.
type Provenance struct {
	SourcePath string
	DocumentID string
	Title      string
	Chapter    string
	Section    string
}

// NormalizeMethod maps any unrecognized method to MethodTokens.
func NormalizeMethod(method string) string {
	if strings.EqualFold(strings.TrimSpace(method), MethodSentences) {
		return MethodSentences
	}
	return MethodTokens
}
