package auth

import (
	"context"
	"net/http"
	"strings"

	"repairdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// UserLoader resolves a verified user id against the identity store.
type UserLoader interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// RequireUser rejects requests without a valid bearer token for a known user.
// The token is read from the Authorization header or, for websocket upgrades, the
// "token" query parameter.
func RequireUser(v *Verifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}

		claims, err := v.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireUser.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		return token, found && token != ""
	}
	token := strings.TrimSpace(strings.TrimPrefix(c.Query("token"), "Bearer "))
	return token, token != ""
}
