package services

import (
	"testing"

	"github.com/yungbote/docqa-backend/internal/chunking"
)

func TestIngestOptionDefaults(t *testing.T) {
	s := &ingestService{defaults: chunking.Options{Method: "tokens", MaxTokens: 500, OverlapTokens: 50}}
	cases := []struct {
		in   chunking.Options
		want chunking.Options
	}{
		{chunking.Options{}, chunking.Options{Method: "tokens", MaxTokens: 500, OverlapTokens: 50}},
		{chunking.Options{Method: "sentences", MaxTokens: 200}, chunking.Options{Method: "sentences", MaxTokens: 200}},
		{chunking.Options{MaxTokens: 300, OverlapTokens: 10}, chunking.Options{Method: "tokens", MaxTokens: 300, OverlapTokens: 10}},
	}
	for _, tc := range cases {
		if got := s.withDefaults(tc.in); got != tc.want {
			t.Fatalf("withDefaults(%+v): want=%+v got=%+v", tc.in, tc.want, got)
		}
	}
}
