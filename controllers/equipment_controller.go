package controllers

import (
	"errors"
	"net/http"
	"strings"

	"labdesk/activity"
	"labdesk/app"
	"labdesk/db"
	"labdesk/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type equipmentBody struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	SerialNumber string `json:"serialNumber"`
	Status       string `json:"status"`
}

// GET /api/equipment?status=&type=&search=
func (s *Srv) ListEquipment(c *gin.Context) {
	rows, err := s.Repo.ListEquipment(c.Request.Context(), db.EquipmentQuery{
		Q:      c.Query("search"),
		Status: c.Query("status"),
		Type:   c.Query("type"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"equipment": rows})
}

// GET /api/equipment/stats
func (s *Srv) EquipmentStats(c *gin.Context) {
	totals, err := s.Reporter.EquipmentTotals(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"stats": totals})
}

// GET /api/equipment/:id
func (s *Srv) GetEquipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := s.Repo.GetEquipmentRow(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "equipment not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"equipment": row})
}

// POST /api/equipment
func (s *Srv) CreateEquipment(c *gin.Context) {
	var body equipmentBody
	if !bindJSON(c, &body) {
		return
	}
	e := &models.Equipment{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(body.Name),
		Type:         strings.TrimSpace(body.Type),
		Location:     strings.TrimSpace(body.Location),
		Description:  body.Description,
		SerialNumber: strings.TrimSpace(body.SerialNumber),
		Status:       models.EquipmentAvailable,
	}
	if e.Name == "" || e.Type == "" || e.Location == "" || e.SerialNumber == "" {
		badRequest(c, "name, type, location and serial number are required")
		return
	}
	if body.Status != "" {
		if body.Status == models.EquipmentBorrowed || !models.ValidEquipmentStatus(body.Status) {
			badRequest(c, "invalid status")
			return
		}
		e.Status = body.Status
	}

	ctx := c.Request.Context()
	err := s.Repo.CreateEquipment(ctx, e)
	if db.IsDuplicateKey(err) {
		badRequest(c, "Serial number already exists")
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	s.Activity.Record(ctx, activity.Entry{
		ActorID:     currentUserID(c),
		Type:        models.ActivityEquipmentCreated,
		Description: "Added new equipment: " + e.Name,
		EntityType:  models.EntityEquipment,
		EntityID:    e.ID,
	})
	c.JSON(http.StatusCreated, app.H{"equipment": e})
}

// PUT /api/equipment/:id
//
// Loan state belongs to the lending workflow: the status cannot be set to
// borrowed here, and equipment that is lent out cannot be edited.
func (s *Srv) UpdateEquipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body equipmentBody
	if !bindJSON(c, &body) {
		return
	}
	if body.Status != "" && (body.Status == models.EquipmentBorrowed || !models.ValidEquipmentStatus(body.Status)) {
		badRequest(c, "invalid status")
		return
	}

	ctx := c.Request.Context()
	cur, err := s.Repo.FindEquipmentByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "equipment not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	if cur.Status == models.EquipmentBorrowed {
		badRequest(c, "Cannot update equipment that is currently borrowed")
		return
	}

	fields := map[string]any{}
	set := func(col, v string) {
		if v = strings.TrimSpace(v); v != "" {
			fields[col] = v
		}
	}
	set("name", body.Name)
	set("type", body.Type)
	set("location", body.Location)
	set("status", body.Status)
	if body.Description != "" {
		fields["description"] = body.Description
	}
	if body.SerialNumber != "" {
		fields["serial_number"] = strings.TrimSpace(body.SerialNumber)
	}
	if len(fields) > 0 {
		n, err := s.Repo.UpdateEquipmentDetails(ctx, id, fields)
		if db.IsDuplicateKey(err) {
			badRequest(c, "Serial number already exists")
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}
		if n == 0 {
			// approved between the read and the update
			badRequest(c, "Cannot update equipment that is currently borrowed")
			return
		}
	}

	row, err := s.Repo.GetEquipmentRow(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	s.Activity.Record(ctx, activity.Entry{
		ActorID:     currentUserID(c),
		Type:        models.ActivityEquipmentUpdated,
		Description: "Updated equipment: " + row.Name,
		EntityType:  models.EntityEquipment,
		EntityID:    id,
	})
	c.JSON(http.StatusOK, app.H{"equipment": row})
}

// DELETE /api/equipment/:id
func (s *Srv) DeleteEquipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	e, err := s.Repo.FindEquipmentByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, app.H{"error": "equipment not found"})
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}

	n, err := s.Repo.DeleteEquipmentUnlessBorrowed(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if n == 0 {
		badRequest(c, "Cannot delete equipment that is currently borrowed")
		return
	}
	s.Activity.Record(ctx, activity.Entry{
		ActorID:     currentUserID(c),
		Type:        models.ActivityEquipmentDeleted,
		Description: "Deleted equipment: " + e.Name,
		EntityType:  models.EntityEquipment,
		EntityID:    id,
	})
	c.JSON(http.StatusOK, app.H{"success": true, "message": "Equipment deleted successfully"})
}
