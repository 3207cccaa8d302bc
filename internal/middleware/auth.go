package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emersoneims/oracle-api/internal/handler"
	"github.com/emersoneims/oracle-api/internal/model"
	"github.com/emersoneims/oracle-api/internal/service/session"
	apperrors "github.com/emersoneims/oracle-api/pkg/errors"
)

const contextUserKey = "current_user"

type AuthMiddleware struct {
	sessions *session.Service
}

func NewAuthMiddleware(sessions *session.Service) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate resolves the bearer token against the session store on
// every request. Tokens are never cached here: a revoked session must
// be refused on the very next call.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			return
		}

		user, err := m.sessions.Validate(c.Request.Context(), parts[1])
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				c.AbortWithStatusJSON(appErr.HTTPStatus(), handler.NewErrorResponse(appErr.Message))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid session"))
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireRole gates a route on a minimum role rank.
func (m *AuthMiddleware) RequireRole(minRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			return
		}

		if model.RoleRank(user.Role) < model.RoleRank(minRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user set by Authenticate, or
// nil on unauthenticated routes.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
