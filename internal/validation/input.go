package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

const (
	MaxMessageChars      = 10000
	MaxQueryChars        = 1000
	MaxSelectedTextChars = 50000
	MaxDocumentBytes     = 1000000
	MaxResponseChars     = 100000
	MinTopK              = 1
	MaxTopK              = 20
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

var sensitiveKeywords = []string{"password", "secret", "api_key", "token", "credential"}

// Sanitize drops NUL and control characters other than tab, newline and
// carriage return, then trims surrounding whitespace.
func Sanitize(text string) string {
	if text == "" {
		return text
	}
	return strings.TrimSpace(controlChars.ReplaceAllString(text, ""))
}

// CheckMessage validates and sanitizes a chat message.
func CheckMessage(msg string) (string, error) {
	return checkRequired("message", msg, MaxMessageChars)
}

// CheckQuery validates and sanitizes a search query.
func CheckQuery(q string) (string, error) {
	return checkRequired("query", q, MaxQueryChars)
}

// CheckSelectedText validates optional selected text; empty input passes through.
func CheckSelectedText(text string) (string, error) {
	if utf8.RuneCountInString(text) > MaxSelectedTextChars {
		return "", apperr.Rejected("selected_text", "too long (max 50000 characters)")
	}
	return Sanitize(text), nil
}

// CheckTopK validates top_k, substituting def when k is zero.
func CheckTopK(k, def int) (int, error) {
	if k == 0 {
		k = def
	}
	if k < MinTopK || k > MaxTopK {
		return 0, apperr.Rejected("top_k", "must be between 1 and 20")
	}
	return k, nil
}

// CheckSessionID parses an optional session id. Empty input yields uuid.Nil.
func CheckSessionID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil || len(raw) != 36 {
		return uuid.Nil, apperr.Rejected("session_id", "invalid session ID format")
	}
	return id, nil
}

// CheckDocument validates a document body for ingestion and returns it sanitized.
func CheckDocument(content string) (string, error) {
	if content == "" {
		return "", apperr.Rejected("content", "cannot be empty")
	}
	if len(content) > MaxDocumentBytes {
		return "", apperr.Rejected("content", "too large (max 1MB)")
	}
	if !utf8.ValidString(content) {
		return "", apperr.Rejected("content", "contains invalid Unicode characters")
	}
	return Sanitize(content), nil
}

// ResponseCheck reports problems with an answer before it leaves the service.
type ResponseCheck struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

func CheckResponse(resp string) ResponseCheck {
	out := ResponseCheck{IsValid: true, Errors: []string{}}
	if utf8.RuneCountInString(resp) > MaxResponseChars {
		out.Errors = append(out.Errors, "Response too large (max 100KB)")
	}
	if containsAny(strings.ToLower(resp), sensitiveKeywords) {
		out.Errors = append(out.Errors, "Response may contain sensitive information")
	}
	out.IsValid = len(out.Errors) == 0
	return out
}

func checkRequired(field, value string, maxChars int) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", apperr.Rejected(field, "cannot be empty")
	}
	if utf8.RuneCountInString(value) > maxChars {
		return "", apperr.Rejected(field, "too long")
	}
	return Sanitize(value), nil
}
