package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docqa-backend/internal/platform/apierr"
	"github.com/yungbote/docqa-backend/internal/platform/promptstyle"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error           APIError `json:"error"`
	FallbackMessage string   `json:"fallback_message,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	env := ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	}
	if status == http.StatusServiceUnavailable {
		env.FallbackMessage = promptstyle.NotAvailable
	}
	c.AbortWithStatusJSON(status, env)
}

// RespondAppError answers with the status the error taxonomy maps err to.
// Server-side failures are attached to the gin context for the access log.
func RespondAppError(c *gin.Context, err error) {
	ae := apierr.FromError(err)
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
