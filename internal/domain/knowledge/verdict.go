package knowledge

// ValidationVerdict is the immutable groundedness assessment of one answer.
type ValidationVerdict struct {
	IsValid    bool       `json:"is_valid"`
	Errors     []string   `json:"errors"`
	Confidence float64    `json:"confidence"`
	Note       string     `json:"validation_note,omitempty"`
	Sentences  *Sentences `json:"sentences,omitempty"`
}

// Sentences is the per-sentence breakdown produced in selected-text mode.
type Sentences struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid"`
	Total   int      `json:"total"`
}
