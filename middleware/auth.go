package middleware

import (
	"net/http"
	"strings"

	"rarebridge-backend/models"
	"rarebridge-backend/service"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Authenticate parses an optional bearer token and stores the caller
// identity in the request context. Requests without a token proceed as
// guests; requests with an invalid token are rejected.
func Authenticate(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			abortUnauthorized(c, "Authorization header must use the Bearer scheme")
			return
		}

		identity, err := auth.Verify(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole rejects requests whose caller does not hold the given role
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Insufficient privileges",
				},
			})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the authenticated caller, or nil for guests
func IdentityFrom(c *gin.Context) *models.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*models.Identity)
	return identity
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
