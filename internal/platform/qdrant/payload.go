package qdrant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

const (
	payloadChunkIDKey    = "chunk_id"
	payloadContentKey    = "content"
	payloadDocumentIDKey = "document_id"
)

// chunkPayload is the only payload shape this adapter writes or accepts.
type chunkPayload struct {
	ChunkID    string                  `json:"chunk_id"`
	Content    string                  `json:"content"`
	DocumentID string                  `json:"document_id"`
	Title      string                  `json:"title"`
	Chapter    string                  `json:"chapter"`
	Section    string                  `json:"section"`
	SourcePath string                  `json:"source_path"`
	Metadata   knowledge.ChunkMetadata `json:"metadata"`
}

func payloadFromChunk(c knowledge.Chunk) chunkPayload {
	return chunkPayload{
		ChunkID:    c.ChunkID,
		Content:    c.Content,
		DocumentID: c.DocumentID,
		Title:      c.Title,
		Chapter:    c.Chapter,
		Section:    c.Section,
		SourcePath: c.SourcePath,
		Metadata:   c.Metadata,
	}
}

func (p chunkPayload) chunk() knowledge.Chunk {
	return knowledge.Chunk{
		ChunkID:    p.ChunkID,
		Content:    p.Content,
		DocumentID: p.DocumentID,
		Title:      p.Title,
		Chapter:    p.Chapter,
		Section:    p.Section,
		SourcePath: p.SourcePath,
		Metadata:   p.Metadata,
	}
}

// decodeChunkPayload rejects payloads with unknown keys, wrong types or no
// chunk id instead of returning a partially filled chunk.
func decodeChunkPayload(raw json.RawMessage) (knowledge.Chunk, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		return knowledge.Chunk{}, fmt.Errorf("payload missing")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var p chunkPayload
	if err := dec.Decode(&p); err != nil {
		return knowledge.Chunk{}, err
	}
	if strings.TrimSpace(p.ChunkID) == "" {
		return knowledge.Chunk{}, fmt.Errorf("payload %s is required", payloadChunkIDKey)
	}
	return p.chunk(), nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
