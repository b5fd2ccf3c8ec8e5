package controllers

import (
	"net/http"

	"labdesk/app"
	"labdesk/lending"
	"labdesk/models"

	"github.com/gin-gonic/gin"
)

type borrowBody struct {
	EquipmentID string      `json:"equipmentId"`
	BorrowDate  models.Date `json:"borrowDate"`
	ReturnDate  models.Date `json:"returnDate"`
	Purpose     string      `json:"purpose"`
}

// POST /api/borrow
func (s *Srv) SubmitBorrowRequest(c *gin.Context) {
	var body borrowBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := s.Lending.SubmitRequest(c.Request.Context(), lending.SubmitInput{
		EquipmentID: body.EquipmentID,
		RequesterID: currentUserID(c),
		BorrowDate:  body.BorrowDate,
		ReturnDate:  body.ReturnDate,
		Purpose:     body.Purpose,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"request": req})
}

type decisionBody struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// PATCH /api/borrow/:id/status
func (s *Srv) DecideBorrowRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body decisionBody
	if !bindJSON(c, &body) {
		return
	}
	req, err := s.Lending.Decide(c.Request.Context(), id, currentUserID(c), body.Status, body.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "Request " + req.Status + " successfully"})
}

type returnBody struct {
	Notes string `json:"notes"`
}

// PATCH /api/borrow/:id/return
func (s *Srv) ReturnBorrowedEquipment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body returnBody
	if c.Request.ContentLength > 0 && !bindJSON(c, &body) {
		return
	}
	if _, err := s.Lending.ReturnEquipment(c.Request.Context(), id, currentUserID(c), body.Notes); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"success": true, "message": "Equipment returned successfully"})
}

// GET /api/borrow?status=&userId=&equipmentId=
func (s *Srv) ListBorrowRequests(c *gin.Context) {
	rows, err := s.Lending.ListRequests(c.Request.Context(), lending.Filter{
		Status:      c.Query("status"),
		RequesterID: c.Query("userId"),
		EquipmentID: c.Query("equipmentId"),
	}, caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"requests": rows})
}

// GET /api/borrow/:id
func (s *Srv) GetBorrowRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	row, err := s.Lending.GetRequest(c.Request.Context(), id, caller(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"request": row})
}
