package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const ingestScope = "ingest"

var errMissingToken = errors.New("missing or invalid token")

// IngestAuth guards ingestion endpoints with an HS256 bearer token. With an
// empty secret the guard is disabled.
type IngestAuth struct {
	log    *logger.Logger
	secret []byte
}

func NewIngestAuth(log *logger.Logger, secret string) *IngestAuth {
	return &IngestAuth{log: log.With("middleware", "IngestAuth"), secret: []byte(strings.TrimSpace(secret))}
}

func (a *IngestAuth) Enabled() bool { return a != nil && len(a.secret) > 0 }

func (a *IngestAuth) RequireToken() gin.HandlerFunc {
	if !a.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if err := a.verify(bearerToken(c)); err != nil {
			a.log.Warn("Ingest request rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": err.Error(), "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

// verify accepts a signed, unexpired token. When the token names a scope it
// must include "ingest".
func (a *IngestAuth) verify(token string) error {
	if token == "" {
		return errMissingToken
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return err
	}
	if !tok.Valid {
		return errMissingToken
	}
	scope, ok := claims["scope"].(string)
	if !ok {
		return nil
	}
	for _, s := range strings.Fields(scope) {
		if s == ingestScope {
			return nil
		}
	}
	return errors.New("token lacks ingest scope")
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
