package qdrant

import (
	"encoding/json"
	"testing"
)

func TestDecodeChunkPayloadStrict(t *testing.T) {
	good := json.RawMessage(`{"chunk_id":"c1","content":"text","document_id":"d1","title":"T","chapter":"General","section":"intro","source_path":"intro.md","metadata":{"chunk_index":1,"total_chunks":3,"method":"tokens"}}`)
	c, err := decodeChunkPayload(good)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ChunkID != "c1" || c.Metadata.TotalChunks != 3 || c.Chapter != "General" {
		t.Fatalf("decoded chunk mismatch: got=%+v", c)
	}

	bad := map[string]string{
		"unknown key":    `{"chunk_id":"c1","content":"x","extra":1}`,
		"wrong type":     `{"chunk_id":"c1","content":"x","metadata":{"chunk_index":"zero"}}`,
		"missing id":     `{"content":"x"}`,
		"null":           `null`,
		"nested unknown": `{"chunk_id":"c1","metadata":{"page":2}}`,
	}
	for name, raw := range bad {
		if _, err := decodeChunkPayload(json.RawMessage(raw)); err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
	}
}
