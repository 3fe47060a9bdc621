package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard/pkg/taskerr"
)

// Middleware verifies the bearer token and binds the full user record into
// the request context. The user is re-loaded from storage so revoked accounts
// stop resolving even while their tokens are still unexpired.
func Middleware(users UserRepository, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": taskerr.ErrUnauthenticated.Error()})
			return
		}

		claims, err := ParseToken(token, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": taskerr.ErrUnauthenticated.Error()})
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), *user))
		c.Next()
	}
}
