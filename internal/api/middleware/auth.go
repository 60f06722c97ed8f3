package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/itera/chatbot-service/internal/domain/errors"
)

// AuthMiddleware guards operator endpoints with a static bearer key.
type AuthMiddleware struct {
	apiKey string
}

// NewAuthMiddleware creates a new AuthMiddleware. An empty key rejects every request.
func NewAuthMiddleware(apiKey string) *AuthMiddleware {
	return &AuthMiddleware{
		apiKey: apiKey,
	}
}

// Authenticate returns a gin middleware that validates the Bearer token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		if m.apiKey == "" || subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.apiKey)) != 1 {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, details string) {
	HandleError(c, domainerrors.NewUnauthorizedError(details))
}
