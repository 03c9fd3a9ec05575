package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/docqa-backend/internal/http/response"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondAppError(c, apperr.Rejected("body", err.Error()))
		return false
	}
	return true
}
