package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/citycare/internal/features/auth"
	"github.com/xyz-asif/citycare/internal/pkg/response"
)

// Admin guards a route with the configured verifiers. A token is accepted
// if any verifier accepts it. With no verifiers configured the route is open.
func Admin(verifiers ...auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(verifiers) == 0 {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header required", "AUTH_REQUIRED")
			c.Abort()
			return
		}

		// Accept "Bearer <token>" (case-insensitive) or a raw token
		fields := strings.Fields(authHeader)
		tokenString := authHeader
		if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
			tokenString = fields[1]
		}

		forbidden := false
		for _, v := range verifiers {
			principal, err := v.Verify(c.Request.Context(), tokenString)
			if err == nil {
				c.Set("adminSubject", principal.Subject)
				c.Set("adminProvider", principal.Provider)
				c.Next()
				return
			}
			if errors.Is(err, auth.ErrForbidden) {
				forbidden = true
			}
		}

		if forbidden {
			response.Forbidden(c, "Admin role required", "FORBIDDEN")
		} else {
			response.Unauthorized(c, "Invalid or expired token", "INVALID_TOKEN")
		}
		c.Abort()
	}
}
