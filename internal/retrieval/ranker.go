// Package retrieval turns a query into an ordered set of supporting chunks
// and renders them as generation context.
package retrieval

import (
	"sort"
	"strings"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

// Signal returns an additive adjustment folded into a result's composite
// score on top of its similarity.
type Signal func(r knowledge.RetrievalResult) float64

// Ranker orders results by composite score. With no signals the composite
// score equals the similarity score.
type Ranker struct {
	signals []Signal
}

func NewRanker(signals ...Signal) *Ranker {
	out := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if s != nil {
			out = append(out, s)
		}
	}
	return &Ranker{signals: out}
}

// Rank returns a new slice sorted by composite score, descending. Equal
// scores keep their input order. The input is not modified.
func (r *Ranker) Rank(results []knowledge.RetrievalResult) []knowledge.RetrievalResult {
	out := make([]knowledge.RetrievalResult, len(results))
	copy(out, results)
	for i := range out {
		score := out[i].SimilarityScore
		if r != nil {
			for _, sig := range r.signals {
				score += sig(out[i])
			}
		}
		s := score
		out[i].CompositeScore = &s
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].CompositeScore > *out[j].CompositeScore
	})
	return out
}

// ChapterWeight boosts results by chapter. Chapter names match
// case-insensitively; unknown chapters get no adjustment.
func ChapterWeight(weights map[string]float64) Signal {
	norm := make(map[string]float64, len(weights))
	for k, v := range weights {
		norm[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return func(r knowledge.RetrievalResult) float64 {
		return norm[strings.ToLower(strings.TrimSpace(r.Chapter))]
	}
}
