package chunking

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

// runeTokenizer maps each rune to one token so windows are easy to reason about.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r))
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	rs := make([]rune, len(tokens))
	for i, t := range tokens {
		rs[i] = rune(t)
	}
	return string(rs)
}

func newTestChunker() *Chunker { return New(runeTokenizer{}) }

func TestTokenWindowsAdvanceByMaxTokens(t *testing.T) {
	got := TokenWindows(25, 10, 3)
	want := []Window{{0, 13}, {10, 23}, {20, 25}}
	if len(got) != len(want) {
		t.Fatalf("windows: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("window %d: want=%v got=%v", i, want[i], got[i])
		}
	}
}

func TestTokenWindowsLastWindowHasNoOverlap(t *testing.T) {
	got := TokenWindows(20, 10, 5)
	if len(got) != 2 {
		t.Fatalf("windows length: want=2 got=%d", len(got))
	}
	if got[1] != (Window{10, 20}) {
		t.Fatalf("last window: want={10 20} got=%v", got[1])
	}
}

func TestTokenWindowsCoverage(t *testing.T) {
	cases := []struct{ n, max, overlap int }{
		{1, 5, 2}, {5, 5, 2}, {6, 5, 2}, {101, 10, 4}, {99, 7, 0}, {40, 3, 10},
	}
	for _, tc := range cases {
		tokens := make([]int, tc.n)
		for i := range tokens {
			tokens[i] = i
		}
		var rebuilt []int
		for _, w := range TokenWindows(tc.n, tc.max, tc.overlap) {
			end := w.Start + tc.max
			if end > w.End {
				end = w.End
			}
			rebuilt = append(rebuilt, tokens[w.Start:end]...)
		}
		if len(rebuilt) != tc.n {
			t.Fatalf("n=%d max=%d overlap=%d: want=%d tokens got=%d", tc.n, tc.max, tc.overlap, tc.n, len(rebuilt))
		}
		for i := range rebuilt {
			if rebuilt[i] != i {
				t.Fatalf("n=%d max=%d overlap=%d: gap at %d got=%d", tc.n, tc.max, tc.overlap, i, rebuilt[i])
			}
		}
	}
}

func TestChunkByTokensIncludesTrailingOverlap(t *testing.T) {
	c := newTestChunker()
	got, err := c.ChunkByTokens("abcdefghijklmnopqrstuvwxy", 10, 3)
	if err != nil {
		t.Fatalf("ChunkByTokens: %v", err)
	}
	want := []string{"abcdefghijklm", "klmnopqrstuvw", "uvwxy"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("chunks: want=%v got=%v", want, got)
	}
}

func TestChunkByTokensNormalizesAndDropsBlankWindows(t *testing.T) {
	c := newTestChunker()
	got, err := c.ChunkByTokens("ab  \n cd          ef", 6, 0)
	if err != nil {
		t.Fatalf("ChunkByTokens: %v", err)
	}
	// windows: "ab  \n ", "cd    ", six spaces, "ef"
	want := []string{"ab", "cd", "ef"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("chunks: want=%v got=%v", want, got)
	}
}

func TestEmptyInputYieldsNoChunks(t *testing.T) {
	c := newTestChunker()
	for _, text := range []string{"", "   ", "\n\t "} {
		byTokens, err := c.ChunkByTokens(text, 10, 2)
		if err != nil || len(byTokens) != 0 {
			t.Fatalf("tokens %q: want empty,nil got=%v,%v", text, byTokens, err)
		}
		bySentences, err := c.ChunkBySentences(text, 10)
		if err != nil || len(bySentences) != 0 {
			t.Fatalf("sentences %q: want empty,nil got=%v,%v", text, bySentences, err)
		}
	}
}

func TestInvalidBoundsRejected(t *testing.T) {
	c := newTestChunker()
	if _, err := c.ChunkByTokens("text", 0, 0); !errors.Is(err, apperr.ErrInputRejected) {
		t.Fatalf("max_tokens=0: want ErrInputRejected got=%v", err)
	}
	if _, err := c.ChunkByTokens("text", 5, -1); !errors.Is(err, apperr.ErrInputRejected) {
		t.Fatalf("overlap=-1: want ErrInputRejected got=%v", err)
	}
	if _, err := c.ChunkBySentences("text", -3); !errors.Is(err, apperr.ErrInputRejected) {
		t.Fatalf("sentences max_tokens=-3: want ErrInputRejected got=%v", err)
	}
}

func TestChunkBySentencesPacksGreedily(t *testing.T) {
	c := newTestChunker()
	text := "One two. Three four! Five six? Seven."
	got, err := c.ChunkBySentences(text, 20)
	if err != nil {
		t.Fatalf("ChunkBySentences: %v", err)
	}
	want := []string{"One two Three four", "Five six Seven."}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("chunks: want=%v got=%v", want, got)
	}
}

func TestChunkBySentencesRespectsLimit(t *testing.T) {
	c := newTestChunker()
	text := "Short one. " + strings.Repeat("x", 45) + ". Tail sentence here. Another small one."
	max := 20
	got, err := c.ChunkBySentences(text, max)
	if err != nil {
		t.Fatalf("ChunkBySentences: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("chunks: want some got none")
	}
	for _, chunk := range got {
		if n := len([]rune(chunk)); n > max {
			t.Fatalf("chunk %q: want <= %d tokens got=%d", chunk, max, n)
		}
	}
	joined := strings.Join(got, "")
	if strings.Count(joined, "x") != 45 {
		t.Fatalf("over-length sentence: want all 45 x preserved got=%d", strings.Count(joined, "x"))
	}
	if strings.Count(joined, "Short one") != 1 {
		t.Fatalf("preceding sentence emitted %d times, want 1", strings.Count(joined, "Short one"))
	}
}

func TestChunkDocumentMetadataAndIdentity(t *testing.T) {
	c := newTestChunker()
	prov := knowledge.Provenance{
		SourcePath: "intro/robots.md",
		DocumentID: DocumentID("intro/robots.md"),
		Title:      "Robots",
		Chapter:    "intro",
		Section:    "robots",
	}
	text := strings.Repeat("word ", 60)
	opts := Options{Method: "tokens", MaxTokens: 50, OverlapTokens: 5}

	first, err := c.ChunkDocument(text, prov, opts)
	if err != nil {
		t.Fatalf("ChunkDocument: %v", err)
	}
	second, err := c.ChunkDocument(text, prov, opts)
	if err != nil {
		t.Fatalf("ChunkDocument: %v", err)
	}
	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("chunk count: first=%d second=%d", len(first), len(second))
	}
	for i := range first {
		if first[i].ChunkID != second[i].ChunkID {
			t.Fatalf("chunk %d id: want=%s got=%s", i, first[i].ChunkID, second[i].ChunkID)
		}
		md := first[i].Metadata
		if md.ChunkIndex != i || md.TotalChunks != len(first) || md.Method != "tokens" {
			t.Fatalf("chunk %d metadata: got=%+v", i, md)
		}
		if first[i].Title != "Robots" || first[i].SourcePath != "intro/robots.md" || first[i].DocumentID != prov.DocumentID {
			t.Fatalf("chunk %d provenance: got=%+v", i, first[i])
		}
	}
}

func TestChunkDocumentUnknownMethodFallsBackToTokens(t *testing.T) {
	c := newTestChunker()
	got, err := c.ChunkDocument("abcdefghij", knowledge.Provenance{SourcePath: "a.md"}, Options{Method: "paragraphs", MaxTokens: 4})
	if err != nil {
		t.Fatalf("ChunkDocument: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("chunks: want=3 got=%d", len(got))
	}
	if got[0].Metadata.Method != "paragraphs" {
		t.Fatalf("method: want=paragraphs got=%q", got[0].Metadata.Method)
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  a\t\tb \n\n c  "); got != "a b c" {
		t.Fatalf("Clean: want=%q got=%q", "a b c", got)
	}
}
