package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"labdesk/activity"
	"labdesk/app"
	"labdesk/db"
	"labdesk/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GET /api/users?role=&status=&search=&page=&size=
func (s *Srv) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := s.Repo.ListUsers(c.Request.Context(), db.UserQuery{
		Q:      c.Query("search"),
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"total": res.Total,
		"users": res.Users,
	})
}

type createUserBody struct {
	FullName   string `json:"fullName"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

// POST /api/users
func (s *Srv) CreateUser(c *gin.Context) {
	var body createUserBody
	if !bindJSON(c, &body) {
		return
	}
	name := strings.TrimSpace(body.FullName)
	if name == "" {
		name = strings.TrimSpace(body.Name)
	}
	if name == "" || strings.TrimSpace(body.Email) == "" || body.Password == "" {
		badRequest(c, "full name, email and password are required")
		return
	}
	if len(body.Password) < app.MinPasswordLength {
		badRequest(c, "password must be at least "+strconv.Itoa(app.MinPasswordLength)+" characters")
		return
	}
	role := body.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		badRequest(c, "invalid role")
		return
	}

	hash, err := app.HashPassword(body.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        body.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        body.Phone,
		Department:   body.Department,
		Status:       models.UserActive,
	}
	ctx := c.Request.Context()
	err = s.Repo.CreateUser(ctx, u)
	if db.IsDuplicateKey(err) {
		badRequest(c, "Email already exists")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	s.Activity.Record(ctx, activity.Entry{
		ActorID:     currentUserID(c),
		Type:        models.ActivityUserCreated,
		Description: "Added new user: " + u.Name,
		EntityType:  models.EntityUser,
		EntityID:    u.ID,
	})
	c.JSON(http.StatusCreated, app.H{"user": u})
}

// PATCH /api/users/:id/status
func (s *Srv) SetUserStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Status != models.UserActive && body.Status != models.UserInactive {
		badRequest(c, "Invalid status")
		return
	}
	if id == currentUserID(c) && body.Status == models.UserInactive {
		badRequest(c, "Cannot deactivate your own account")
		return
	}

	ctx := c.Request.Context()
	u, err := s.Repo.SetUserStatus(ctx, id, body.Status)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "User not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if u.Status == models.UserInactive {
		if err := s.Tokens.RevokeUser(ctx, id); err != nil {
			_ = c.Error(err)
		}
	}
	s.Activity.Record(ctx, activity.Entry{
		ActorID:     currentUserID(c),
		Type:        models.ActivityUserStatusChanged,
		Description: "Changed user status to " + u.Status + ": " + u.Name,
		EntityType:  models.EntityUser,
		EntityID:    id,
	})
	c.JSON(http.StatusOK, app.H{"user": u})
}

// DELETE /api/users/:id
func (s *Srv) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	// deleting yourself would lock the admin out
	if id == currentUserID(c) {
		badRequest(c, "Cannot delete your own account")
		return
	}

	ctx := c.Request.Context()
	target, err := s.Repo.FindUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "User not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	n, err := s.Repo.CountActiveRequestsByUser(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if n > 0 {
		badRequest(c, "Cannot delete user with active borrow requests")
		return
	}

	if err := s.Repo.DeleteUserByID(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	if err := s.Tokens.RevokeUser(ctx, id); err != nil {
		_ = c.Error(err)
	}
	s.Activity.Record(ctx, activity.Entry{
		ActorID:     currentUserID(c),
		Type:        models.ActivityUserDeleted,
		Description: "Deleted user: " + target.Name,
		EntityType:  models.EntityUser,
		EntityID:    id,
	})
	c.JSON(http.StatusOK, app.H{"success": true, "message": "User deleted successfully"})
}
