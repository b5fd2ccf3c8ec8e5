package controllers

import (
	"net/http"

	"labdesk/app"
	"labdesk/models"
	"labdesk/scheduling"

	"github.com/gin-gonic/gin"
)

type scheduleBody struct {
	Subject    string      `json:"subject"`
	Class      string      `json:"class"`
	Instructor string      `json:"instructor"`
	Room       string      `json:"room"`
	Floor      string      `json:"floor"`
	Date       models.Date `json:"date"`
	StartTime  string      `json:"startTime"`
	EndTime    string      `json:"endTime"`
}

// GET /api/schedules?date=&room=&status=
func (s *Srv) ListSchedules(c *gin.Context) {
	f := scheduling.Filter{Room: c.Query("room"), Status: c.Query("status")}
	if v := c.Query("date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Date = &d
	}
	rows, err := s.Scheduling.ListSchedules(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"schedules": rows})
}

// GET /api/schedules/:id
func (s *Srv) GetSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := s.Scheduling.GetSchedule(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"schedule": row})
}

// POST /api/schedules
func (s *Srv) CreateSchedule(c *gin.Context) {
	var body scheduleBody
	if !bindJSON(c, &body) {
		return
	}
	if body.StartTime == "" || body.EndTime == "" {
		badRequest(c, "all fields are required")
		return
	}
	start, err := models.ParseClock(body.StartTime)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := models.ParseClock(body.EndTime)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	sc, err := s.Scheduling.CreateSchedule(c.Request.Context(), scheduling.CreateInput{
		Subject:    body.Subject,
		Class:      body.Class,
		Instructor: body.Instructor,
		Room:       body.Room,
		Floor:      body.Floor,
		Date:       body.Date,
		StartTime:  start,
		EndTime:    end,
		CreatorID:  currentUserID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"schedule": sc})
}

// PATCH /api/schedules/:id/status
func (s *Srv) SetScheduleStatus(c *gin.Context) {
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
	sc, err := s.Scheduling.SetStatus(c.Request.Context(), id, currentUserID(c), body.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"schedule": sc})
}

// DELETE /api/schedules/:id
func (s *Srv) DeleteSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.Scheduling.DeleteSchedule(c.Request.Context(), id, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "Schedule deleted successfully"})
}
