package app

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"labdesk/db"
	"labdesk/models"
	"labdesk/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by AuthRequired.
const (
	CtxUserID    = "userID"
	CtxUsername  = "username"
	CtxRole      = "role"
	CtxSessionID = "sessionID"
)

func bearer(c *gin.Context) string {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func AuthRequired(tokens *session.Issuer, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		ctx := c.Request.Context()
		claims, err := tokens.Verify(ctx, token)
		if errors.Is(err, session.ErrInvalidToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, H{"error": "internal server error"})
			return
		}

		// the role is read from the database so demotions apply immediately
		u, err := repo.FindUserByID(ctx, claims.Subject)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = tokens.Revoke(ctx, claims.ID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, H{"error": "internal server error"})
			return
		}
		if u.Status != models.UserActive {
			_ = tokens.Revoke(ctx, claims.ID)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "account is inactive"})
			return
		}

		c.Set(CtxUserID, u.ID)
		c.Set(CtxUsername, u.Name)
		c.Set(CtxRole, u.Role)
		c.Set(CtxSessionID, claims.ID)
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles. It must run
// after AuthRequired.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(CtxUserID); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !slices.Contains(roles, c.GetString(CtxRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
