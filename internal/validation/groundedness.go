// Package validation decides whether a generated answer is lexically supported
// by its supporting text, and guards request and response payloads.
//
// The checks are word-overlap heuristics. Thresholds and confidence values are
// part of the observable contract: callers gate, log and persist on them.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yungbote/docqa-backend/internal/domain/knowledge"
)

const (
	ConfidenceBookAbsence = 0.9
	ConfidenceGeneric     = 0.3
	ConfidenceSparse      = 0.2
	ConfidenceRefusal     = 1.0

	sparseContextMaxChars = 50
	verboseAnswerMinChars = 100

	// A sentence is supported when at least this share of its words appears in the selected text.
	SentenceOverlapThreshold = 0.3
	// The verdict fails when more than this share of sentences is unsupported.
	InvalidSentenceRatioLimit = 0.5

	minWordRunes = 4
)

// BookAbsencePhrases mark an answer that says the book lacks the information.
var BookAbsencePhrases = []string{
	"not available in the book",
	"not found in the book",
	"not mentioned in the book",
	"no information in the book",
	"book does not contain",
	"not provided in the book",
	"not specified in the book",
}

// SelectedTextRefusals mark an answer that declines to go beyond the selected text.
var SelectedTextRefusals = []string{
	"i don't know",
	"not in the provided text",
	"not found in the selected text",
	"not mentioned in the text",
	"not specified in the text",
}

// GenericIndicators signal generalized or external knowledge. Matching is a
// case-insensitive substring search, evaluated in this order.
var GenericIndicators = []string{
	"generally",
	"in general",
	"typically",
	"usually",
	"most",
	"many",
	"external sources",
	"other sources",
	"from external knowledge",
}

var (
	genericIndicatorPatterns = compileIndicators(GenericIndicators)
	sentenceTerminators      = regexp.MustCompile(`[.!?]+`)
)

const (
	msgGenericIndicator   = "Response contains generic knowledge indicator: %s"
	msgSparseContext      = "Detailed response provided with minimal context"
	msgEmptyResponse      = "Response cannot be empty"
	msgEmptySelectedText  = "Selected text cannot be empty for validation"
	msgOutsideSelection   = "Response contains information not found in selected text. %d/%d sentences appear to be outside the selected text context."
	noteSelectionRefusal  = "Response properly indicates information not available in selected text"
	noteBookAbsenceAnswer = "Response indicates the information is not available in the book"
)

func compileIndicators(indicators []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(indicators))
	for _, ind := range indicators {
		out = append(out, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(ind)))
	}
	return out
}

// Support is the text an answer must be grounded in: either retrieved chunks
// or a single user-selected passage.
type Support struct {
	Chunks       []knowledge.Chunk
	SelectedText string
	selected     bool
}

func ChunkSupport(chunks []knowledge.Chunk) Support {
	return Support{Chunks: chunks}
}

func SelectedTextSupport(text string) Support {
	return Support{SelectedText: text, selected: true}
}

// IsSelectedText reports whether s restricts validation to a selected passage.
func (s Support) IsSelectedText() bool { return s.selected }

// ValidateGrounding validates answer against either kind of support.
func ValidateGrounding(answer string, support Support) knowledge.ValidationVerdict {
	if support.selected {
		return ValidateSelectedText(answer, support.SelectedText)
	}
	return ValidateContext(answer, support.Chunks)
}

// ValidateContext checks an answer generated from retrieved chunks.
func ValidateContext(answer string, chunks []knowledge.Chunk) knowledge.ValidationVerdict {
	v := newVerdict()
	lower := strings.ToLower(answer)
	if containsAny(lower, BookAbsencePhrases) {
		v.Confidence = ConfidenceBookAbsence
		v.Note = noteBookAbsenceAnswer
		return v
	}

	for i, re := range genericIndicatorPatterns {
		if re.MatchString(lower) {
			v.Errors = append(v.Errors, fmt.Sprintf(msgGenericIndicator, GenericIndicators[i]))
			v.IsValid = false
			v.Confidence = ConfidenceGeneric
		}
	}

	if len(chunks) > 0 {
		contents := make([]string, 0, len(chunks))
		for _, c := range chunks {
			contents = append(contents, c.Content)
		}
		applySparseContext(&v, strings.Join(contents, " "), answer)
	}
	return v
}

// ValidateSelectedText checks an answer that must be grounded only in selected.
// Only zero-length inputs count as empty; whitespace yields zero sentences.
// The sparse-context check does not apply here.
func ValidateSelectedText(answer, selected string) knowledge.ValidationVerdict {
	v := newVerdict()
	lower := strings.ToLower(answer)
	if containsAny(lower, BookAbsencePhrases) {
		v.Confidence = ConfidenceBookAbsence
		v.Note = noteBookAbsenceAnswer
		return v
	}
	if answer == "" {
		return failed(msgEmptyResponse)
	}
	if selected == "" {
		return failed(msgEmptySelectedText)
	}
	if containsAny(lower, SelectedTextRefusals) {
		v.Confidence = ConfidenceRefusal
		v.Note = noteSelectionRefusal
		return v
	}

	breakdown := verifySentences(answer, selected)
	v.Sentences = &breakdown
	invalid := len(breakdown.Invalid)
	if breakdown.Total > 0 && float64(invalid)/float64(breakdown.Total) > InvalidSentenceRatioLimit {
		v.Errors = append(v.Errors, fmt.Sprintf(msgOutsideSelection, invalid, breakdown.Total))
	}
	if breakdown.Total > 0 {
		v.Confidence = min(1.0, float64(len(breakdown.Valid))/float64(breakdown.Total))
	} else {
		v.Confidence = 0
	}
	v.IsValid = len(v.Errors) == 0
	return v
}

// verifySentences splits answer on terminators and classifies each sentence by
// the share of its long words found in selected. Sentences without long words
// count toward the total only.
func verifySentences(answer, selected string) knowledge.Sentences {
	selectedWords := longWords(selected)
	out := knowledge.Sentences{Valid: []string{}, Invalid: []string{}}
	for _, raw := range sentenceTerminators.Split(answer, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		out.Total++
		words := longWords(sentence)
		if len(words) == 0 {
			continue
		}
		common := 0
		for w := range words {
			if _, ok := selectedWords[w]; ok {
				common++
			}
		}
		if float64(common)/float64(len(words)) < SentenceOverlapThreshold {
			out.Invalid = append(out.Invalid, sentence)
		} else {
			out.Valid = append(out.Valid, sentence)
		}
	}
	return out
}

func longWords(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if utf8.RuneCountInString(w) >= minWordRunes {
			out[w] = struct{}{}
		}
	}
	return out
}

func applySparseContext(v *knowledge.ValidationVerdict, supporting, answer string) {
	if utf8.RuneCountInString(strings.TrimSpace(supporting)) < sparseContextMaxChars &&
		utf8.RuneCountInString(strings.TrimSpace(answer)) > verboseAnswerMinChars {
		v.Errors = append(v.Errors, msgSparseContext)
		v.IsValid = false
		v.Confidence = ConfidenceSparse
	}
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func newVerdict() knowledge.ValidationVerdict {
	return knowledge.ValidationVerdict{IsValid: true, Errors: []string{}, Confidence: 1.0}
}

func failed(msg string) knowledge.ValidationVerdict {
	return knowledge.ValidationVerdict{IsValid: false, Errors: []string{msg}, Confidence: 0}
}
