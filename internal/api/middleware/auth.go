package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/commutehq/corp-rides/internal/domain/user"
	"github.com/commutehq/corp-rides/internal/service/audit"
	"github.com/commutehq/corp-rides/internal/service/auth"
	"github.com/commutehq/corp-rides/pkg/logger"
)

const currentUserKey = "current_user"

// RequireAuth resolves the bearer token to exactly one active user and
// attaches it to the request context. Requests without a valid credential
// are rejected with 401.
func RequireAuth(authService *auth.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		u, err := authService.ResolveToken(c.Request.Context(), tokenStr)
		if err != nil {
			log.Warn("Token resolution failed", logger.Err(err))
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(currentUserKey, u)

		// Attach requester attribution for downstream audit records
		ctx := audit.WithMeta(c.Request.Context(), audit.Meta{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin rejects callers that do not hold the admin role. Must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by RequireAuth
func CurrentUser(c *gin.Context) (*user.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	u, ok := value.(*user.User)
	return u, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
