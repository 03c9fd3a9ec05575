package ingestion

import (
	"strings"
	"testing"
)

func TestPlainTextStripsMarkup(t *testing.T) {
	src := []byte("# Robot Kinematics\n\nThe **arm** has _six_ joints.\nSee [the docs](http://x).\n\n<div>hidden</div>\n\n```python\nprint(1)\n```\n- one\n- two\n")
	got := strings.Join(strings.Fields(PlainText(src)), " ")
	want := "Robot Kinematics The arm has six joints. See the docs. print(1) one two"
	if got != want {
		t.Fatalf("PlainText: want=%q got=%q", want, got)
	}
}

func TestTitle(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"h1", "intro\n# Welcome\n## Later", "Welcome"},
		{"h2 first", "## Setup\n# Main", "Setup"},
		{"indented heading ignored", "  # Nope\ntext", "stem"},
		{"none", "just text", "stem"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Title([]byte(tc.src), "stem"); got != tc.want {
				t.Fatalf("Title: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestChapterAndStem(t *testing.T) {
	if got := Chapter("module-1/ros-basics.md"); got != "module-1" {
		t.Fatalf("Chapter nested: want=%q got=%q", "module-1", got)
	}
	if got := Chapter("intro.md"); got != DefaultChapter {
		t.Fatalf("Chapter root: want=%q got=%q", DefaultChapter, got)
	}
	if got := Stem("module-1/ros-basics.mdx"); got != "ros-basics" {
		t.Fatalf("Stem: want=%q got=%q", "ros-basics", got)
	}
}

func TestMarkdownDocument(t *testing.T) {
	doc := MarkdownDocument("module-2/sensors.md", []byte("# Sensors\n\nLidar and cameras."))
	if doc.Title != "Sensors" || doc.Chapter != "module-2" || doc.Section != "sensors" {
		t.Fatalf("provenance: got=%+v", doc)
	}
	if doc.SourcePath != "module-2/sensors.md" {
		t.Fatalf("SourcePath: want=%q got=%q", "module-2/sensors.md", doc.SourcePath)
	}
	prov := doc.Provenance()
	if prov.DocumentID == "" {
		t.Fatalf("DocumentID: want non-empty")
	}
	if again := MarkdownDocument("module-2/sensors.md", []byte("changed")).Provenance(); again.DocumentID != prov.DocumentID {
		t.Fatalf("DocumentID must depend on path only: %q vs %q", again.DocumentID, prov.DocumentID)
	}
}

func TestProvenanceDefaults(t *testing.T) {
	prov := Document{Content: "x", SourcePath: "notes/field-guide.md"}.Provenance()
	if prov.Title != "field-guide" || prov.Chapter != "notes" || prov.Section != "field-guide" {
		t.Fatalf("defaults: got=%+v", prov)
	}
}
