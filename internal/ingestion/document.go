package ingestion

import (
	"path"
	"strings"

	"github.com/yungbote/docqa-backend/internal/chunking"
	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

const DefaultChapter = "General"

// Document is plain text ready for chunking, with its provenance.
type Document struct {
	Content    string `json:"content"`
	SourcePath string `json:"source_path"`
	Title      string `json:"title"`
	Chapter    string `json:"chapter"`
	Section    string `json:"section"`
}

// MarkdownDocument converts a markdown file at relPath (slash separated,
// relative to the docs root) into a Document.
func MarkdownDocument(relPath string, raw []byte) Document {
	relPath = path.Clean(strings.TrimPrefix(relPath, "/"))
	stem := Stem(relPath)
	return Document{
		Content:    PlainText(raw),
		SourcePath: relPath,
		Title:      Title(raw, stem),
		Chapter:    Chapter(relPath),
		Section:    stem,
	}
}

// Provenance fills missing title, chapter and section from the source path.
// The document id is derived from the source path.
func (d Document) Provenance() knowledge.Provenance {
	stem := Stem(d.SourcePath)
	prov := knowledge.Provenance{
		SourcePath: d.SourcePath,
		DocumentID: chunking.DocumentID(d.SourcePath),
		Title:      strings.TrimSpace(d.Title),
		Chapter:    strings.TrimSpace(d.Chapter),
		Section:    strings.TrimSpace(d.Section),
	}
	if prov.Title == "" {
		prov.Title = stem
	}
	if prov.Chapter == "" {
		prov.Chapter = Chapter(d.SourcePath)
	}
	if prov.Section == "" {
		prov.Section = stem
	}
	return prov
}
