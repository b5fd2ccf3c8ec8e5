// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"

	"labdesk/activity"
	"labdesk/app"
	"labdesk/apperr"
	"labdesk/db"
	"labdesk/lending"
	"labdesk/report"
	"labdesk/scheduling"
	"labdesk/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Srv struct {
	Repo       *db.Repo
	Tokens     *session.Issuer
	Activity   *activity.Log
	Lending    *lending.Manager
	Scheduling *scheduling.Manager
	Reporter   *report.Reporter
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:       a.Repo,
		Tokens:     a.Tokens,
		Activity:   a.Activity,
		Lending:    a.Lending,
		Scheduling: a.Scheduling,
		Reporter:   a.Reporter,
	}
}

// --- helpers ---

// writeError maps an error kind to a status code. Unclassified errors are
// attached to the gin context for the access log and never shown to clients.
func writeError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation, apperr.ErrInvalidState, apperr.ErrConflict:
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case apperr.ErrNotFound:
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	default:
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, app.H{"error": msg})
}

// pathID reads :id and rejects anything that is not a UUID.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, "invalid uuid")
		return "", false
	}
	return id, true
}

func currentUserID(c *gin.Context) string { return c.GetString(app.CtxUserID) }

func caller(c *gin.Context) lending.Caller {
	return lending.Caller{ID: c.GetString(app.CtxUserID), Role: c.GetString(app.CtxRole)}
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
