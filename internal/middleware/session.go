package middleware

import (
	"errors"
	"strings"

	"anoa.com/handchatter/internal/entity"
	sessionService "anoa.com/handchatter/internal/modules/session/service"
	"anoa.com/handchatter/pkg/apperror"
	"anoa.com/handchatter/pkg/response"
	"github.com/gin-gonic/gin"
)

type SessionMiddleware struct {
	sessions sessionService.SessionService
}

func NewSessionMiddleware(sessions sessionService.SessionService) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// LoadSession resolves the session cookie, if any, and stores the principal
// in the context. Requests without a valid session continue anonymously.
func (m *SessionMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		principal, err := m.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, apperror.ErrUnauthorized) {
				response.ResponseError(c, err)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(response.PrincipalKey, principal)
		c.Set(response.SessionTokenKey, token)
		c.Next()
	}
}

func (m *SessionMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := response.GetPrincipal(c); err != nil {
			response.ResponseError(c, apperror.Wrap(apperror.ErrUnauthorized, "login required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects sessions of a different role with 403.
func (m *SessionMiddleware) RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := response.GetPrincipal(c)
		if err != nil {
			response.ResponseError(c, apperror.Wrap(apperror.ErrUnauthorized, "login required"))
			c.Abort()
			return
		}

		if principal.Role != role {
			response.ResponseError(c, apperror.Wrap(apperror.ErrForbidden, string(role)+" access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
