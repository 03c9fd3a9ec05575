package retrieval

import (
	"testing"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

func result(id string, score float64) knowledge.RetrievalResult {
	return knowledge.RetrievalResult{Chunk: knowledge.Chunk{ChunkID: id}, SimilarityScore: score}
}

func ids(rs []knowledge.RetrievalResult) []string { return knowledge.ChunkIDs(rs) }

func TestRankDefaultCompositeEqualsSimilarity(t *testing.T) {
	in := []knowledge.RetrievalResult{result("a", 0.2), result("b", 0.9), result("c", 0.5)}
	out := NewRanker().Rank(in)

	if got := ids(out); got[0] != "b" || got[1] != "c" || got[2] != "a" {
		t.Fatalf("order: want=[b c a] got=%v", got)
	}
	for _, r := range out {
		if r.CompositeScore == nil || *r.CompositeScore != r.SimilarityScore {
			t.Fatalf("composite for %s: want=%v got=%v", r.ChunkID, r.SimilarityScore, r.CompositeScore)
		}
	}
	if in[0].CompositeScore != nil || in[0].ChunkID != "a" {
		t.Fatalf("input mutated: got=%+v", in[0])
	}
}

func TestRankStableForTies(t *testing.T) {
	in := []knowledge.RetrievalResult{
		result("first", 0.5), result("top", 0.7), result("second", 0.5), result("third", 0.5),
	}
	got := ids(NewRanker().Rank(in))
	want := []string{"top", "first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order: want=%v got=%v", want, got)
		}
	}
}

func TestRankFoldsSignals(t *testing.T) {
	in := []knowledge.RetrievalResult{result("a", 0.80), result("b", 0.75)}
	in[1].Chapter = "Module-2"
	out := NewRanker(ChapterWeight(map[string]float64{"module-2": 0.1}), nil).Rank(in)
	if out[0].ChunkID != "b" {
		t.Fatalf("signal order: want b first got=%v", ids(out))
	}
	if *out[0].CompositeScore < 0.849 || *out[0].CompositeScore > 0.851 {
		t.Fatalf("composite: want=0.85 got=%v", *out[0].CompositeScore)
	}
	if out[0].SimilarityScore != 0.75 {
		t.Fatalf("similarity must be untouched: got=%v", out[0].SimilarityScore)
	}
}

func TestRankEmpty(t *testing.T) {
	if out := NewRanker().Rank(nil); len(out) != 0 {
		t.Fatalf("Rank(nil): want empty got=%v", out)
	}
}
