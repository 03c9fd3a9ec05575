package openai

import (
	"fmt"
	"net/http"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

const maxErrorBody = 2048

// HTTPError is a non-2xx answer from the provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// Is reports rejected credentials as a configuration error.
func (e *HTTPError) Is(target error) bool {
	if e == nil || target != apperr.ErrConfiguration {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func truncate(raw []byte) string {
	if len(raw) <= maxErrorBody {
		return string(raw)
	}
	return string(raw[:maxErrorBody]) + "..."
}
