package chunking

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

// Fixed so that identifiers are stable across processes and restarts.
var contentHashKey = []byte("docqa/chunk-identity/highwayhash")

// ContentHash is a keyed 64-bit HighwayHash of content.
func ContentHash(content string) uint64 {
	return highwayhash.Sum64([]byte(content), contentHashKey)
}

// ChunkID derives a UUIDv5 from the source path, the content length in runes
// and the content hash. Equal inputs always yield equal ids.
func ChunkID(sourcePath, content string) string {
	name := fmt.Sprintf("%s_%d_%d", sourcePath, utf8.RuneCountInString(content), ContentHash(content))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// DocumentID derives a UUIDv5 from the document's source path.
func DocumentID(sourcePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourcePath)).String()
}

func BuildChunk(content string, prov knowledge.Provenance, meta knowledge.ChunkMetadata) knowledge.Chunk {
	return knowledge.Chunk{
		ChunkID:    ChunkID(prov.SourcePath, content),
		Content:    content,
		DocumentID: prov.DocumentID,
		Title:      prov.Title,
		Chapter:    prov.Chapter,
		Section:    prov.Section,
		SourcePath: prov.SourcePath,
		Metadata:   meta,
	}
}
