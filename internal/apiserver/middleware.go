package apiserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/burenotti/runbox/internal/auth"
)

const subjectContextKey = "runbox.subject"

// requireAuth validates a Bearer API token, grounded on the teacher's
// internal/middleware RequireAuth pattern (header presence, Bearer-prefix
// extraction, JSON error body with a machine-readable code).
func requireAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "code": "AUTH_HEADER_MISSING"})
			c.Abort()
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "INVALID_AUTH_HEADER"})
			c.Abort()
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "TOKEN_VALIDATION_FAILED"})
			c.Abort()
			return
		}

		c.Set(subjectContextKey, claims.Subject)
		c.Next()
	}
}

func extractBearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || len(header) <= len(prefix) {
		return "", errInvalidAuthHeader
	}
	return strings.TrimPrefix(header, prefix), nil
}

var errInvalidAuthHeader = &authHeaderError{}

type authHeaderError struct{}

func (e *authHeaderError) Error() string {
	return "invalid authorization header format: expected 'Bearer <token>'"
}

func subjectFrom(c *gin.Context) string {
	v, _ := c.Get(subjectContextKey)
	s, _ := v.(string)
	return s
}
