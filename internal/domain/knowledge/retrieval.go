package knowledge

// RetrievalResult is a chunk scored against one query. It is produced per
// query and never persisted; only ChunkID is stored as a reference.
type RetrievalResult struct {
	Chunk
	SimilarityScore float64  `json:"similarity_score"`
	CompositeScore  *float64 `json:"composite_score,omitempty"`
}

// Score returns the composite score when set, otherwise the similarity score.
func (r RetrievalResult) Score() float64 {
	if r.CompositeScore != nil {
		return *r.CompositeScore
	}
	return r.SimilarityScore
}

// ChunkIDs returns the chunk identifiers of results in order.
func ChunkIDs(results []RetrievalResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ChunkID)
	}
	return out
}
