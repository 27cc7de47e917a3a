package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"auth-be/internal/entities"
	"auth-be/internal/service"
)

// userContextKey is the gin context key holding the authenticated user
const userContextKey = "user"

// AuthMiddleware admits requests carrying a valid "Authorization: Bearer"
// session token and stores the resolved user for later handlers.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*entities.User)
	return user, ok && user != nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return ""
	}
	return strings.TrimSpace(token)
}
