package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	usernameKey = "username"

	// TrustedUserHeader names the platform user when auth is disabled and a
	// fronting proxy has already authenticated the request.
	TrustedUserHeader = "X-Remote-User"
)

// UserResolver maps a bearer token to a platform username.
type UserResolver interface {
	ResolveUser(ctx context.Context, token string) (string, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// resolved username on the context.
func AuthRequired(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		username, err := resolver.ResolveUser(c.Request.Context(), parts[1])
		if err != nil || username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// TrustedUser takes the username from TrustedUserHeader.
func TrustedUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.GetHeader(TrustedUserHeader))
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": TrustedUserHeader + " header required"})
			return
		}
		c.Set(usernameKey, username)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(usernameKey)
}
