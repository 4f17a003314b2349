package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campusbot/internal/models"
)

const (
	principalContextKey = "auth_principal"
	authTokenContextKey = "auth_token"
	cookieAuthKey       = "auth_via_cookie"
)

// PrincipalSource resolves the role and degree behind an authenticated user id.
type PrincipalSource interface {
	Principal(ctx context.Context, userID int64) (models.Principal, error)
}

// Middleware authenticates the caller by bearer header or auth cookie and
// stores the caller's Principal for the rest of the request. Tokens whose user
// no longer exists are rejected.
func (s *Service) Middleware(principals PrincipalSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authToken, viaCookie := s.extractToken(c)
		if authToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		ctx := c.Request.Context()
		userID, err := s.ValidateToken(ctx, authToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		principal, err := principals.Principal(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) || errors.Is(err, models.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(principalContextKey, principal)
		c.Set(authTokenContextKey, authToken)
		c.Set(cookieAuthKey, viaCookie)
		c.Next()
	}
}

// PrincipalFromContext returns the caller resolved by Middleware.
func PrincipalFromContext(c *gin.Context) (models.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := val.(models.Principal)
	return p, ok
}

// UserIDFromContext retrieves the authenticated user id from the gin context.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	p, ok := PrincipalFromContext(c)
	if !ok {
		return 0, false
	}
	return p.ID, true
}

// AuthTokenFromContext retrieves the token captured by the middleware.
func AuthTokenFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(authTokenContextKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

// extractToken prefers the bearer header and reports whether the cookie was used.
func (s *Service) extractToken(c *gin.Context) (string, bool) {
	if token, ok := bearerToken(c.GetHeader(s.headerName)); ok {
		return token, false
	}
	if token, err := c.Cookie(s.cookieName); err == nil && token != "" {
		return token, true
	}
	return "", false
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
