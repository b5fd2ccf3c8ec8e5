package controllers

import (
	"errors"
	"net/http"
	"strings"

	"labdesk/app"
	"labdesk/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // optional, must match the account when sent
}

// POST /api/auth/login
func (s *Srv) Login(c *gin.Context) {
	var body loginBody
	if !bindJSON(c, &body) {
		return
	}
	if strings.TrimSpace(body.Email) == "" || body.Password == "" {
		badRequest(c, "email and password are required")
		return
	}

	ctx := c.Request.Context()
	u, err := s.Repo.FindUserByEmail(ctx, body.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if !app.CheckPassword(u.PasswordHash, body.Password) || (body.Role != "" && body.Role != u.Role) {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid credentials"})
		return
	}
	if u.Status != models.UserActive {
		c.JSON(http.StatusUnauthorized, app.H{"error": "account is inactive"})
		return
	}

	token, exp, err := s.Tokens.Issue(ctx, u)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := s.Repo.TouchUserLogin(ctx, u.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		_ = c.Error(err) // bookkeeping only
	}

	c.JSON(http.StatusOK, app.H{
		"success":   true,
		"token":     token,
		"expiresAt": exp,
		"user":      u,
	})
}

// POST /api/auth/logout
func (s *Srv) Logout(c *gin.Context) {
	if sid := c.GetString(app.CtxSessionID); sid != "" {
		if err := s.Tokens.Revoke(c.Request.Context(), sid); err != nil {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, app.H{"success": true})
}

// GET /api/auth/me
func (s *Srv) Me(c *gin.Context) {
	u, err := s.Repo.FindUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"user": u})
}
