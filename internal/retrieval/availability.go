package retrieval

import (
	"strings"
	"unicode/utf8"
)

const availabilityRatio = 0.3

// CheckContentAvailability is a cheap pre-generation check that the context
// mentions the query at all: at least 30% of the query's words longer than
// three characters must occur in the context. A query with no such words
// passes; an empty context or query does not.
func CheckContentAvailability(context, query string) bool {
	if strings.TrimSpace(context) == "" || strings.TrimSpace(query) == "" {
		return false
	}
	lowerContext := strings.ToLower(context)

	words := 0
	found := 0
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		words++
		if strings.Contains(lowerContext, w) {
			found++
		}
	}
	if words == 0 {
		return true
	}
	return float64(found)/float64(words) >= availabilityRatio
}
