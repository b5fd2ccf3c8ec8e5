package lending

import "labdesk/apperr"

var (
	ErrEquipmentNotFound    = apperr.New(apperr.ErrNotFound, "equipment not found")
	ErrRequestNotFound      = apperr.New(apperr.ErrNotFound, "borrow request not found")
	ErrEquipmentUnavailable = apperr.New(apperr.ErrInvalidState, "equipment is not available for borrowing")
	ErrNotPending           = apperr.New(apperr.ErrInvalidState, "request is not pending")
	ErrNotApproved          = apperr.New(apperr.ErrInvalidState, "request is not approved")
	ErrBorrowLimit          = apperr.New(apperr.ErrInvalidState, "borrow limit reached")
	ErrPeriodTaken          = apperr.New(apperr.ErrConflict, "equipment is already requested for this time period")
	ErrInvalidDecision      = apperr.New(apperr.ErrValidation, "decision must be approved or rejected")
)
