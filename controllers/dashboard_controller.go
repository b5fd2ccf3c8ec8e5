package controllers

import (
	"net/http"
	"strconv"

	"labdesk/app"

	"github.com/gin-gonic/gin"
)

// GET /api/dashboard/stats
func (s *Srv) DashboardStats(c *gin.Context) {
	d, err := s.Reporter.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/activity?limit=  or  ?entityType=&entityId=
func (s *Srv) ListActivity(c *gin.Context) {
	ctx := c.Request.Context()
	if et, eid := c.Query("entityType"), c.Query("entityId"); et != "" && eid != "" {
		logs, err := s.Repo.ActivityFor(ctx, et, eid)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, app.H{"activities": logs})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Activity.Recent(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"activities": rows})
}
