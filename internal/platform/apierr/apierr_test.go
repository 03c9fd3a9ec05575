package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"rejected", apperr.Rejected("message", "cannot be empty"), http.StatusBadRequest, "invalid_request"},
		{"not found", fmt.Errorf("session: %w", apperr.ErrNotFound), http.StatusNotFound, "not_found"},
		{"unavailable", apperr.Unavailable("llm", "generate", true, errors.New("502")), http.StatusServiceUnavailable, "service_unavailable"},
		{"deadline", fmt.Errorf("embed: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "timeout"},
		{"config", apperr.Misconfigured("embedding", "api_key", nil), http.StatusInternalServerError, "configuration_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"explicit", fmt.Errorf("wrap: %w", New(http.StatusConflict, "conflict", nil)), http.StatusConflict, "conflict"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			if got.Status != tc.status {
				t.Fatalf("status: want=%d got=%d", tc.status, got.Status)
			}
			if got.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, got.Code)
			}
		})
	}
	if FromError(nil) != nil {
		t.Fatalf("FromError(nil): want nil")
	}
}
