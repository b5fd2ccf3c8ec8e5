// Package lending decides borrow requests against equipment availability and
// drives the request lifecycle pending -> approved|rejected, approved -> returned.
package lending

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labdesk/activity"
	"labdesk/apperr"
	"labdesk/db"
	"labdesk/interval"
	"labdesk/lock"
	"labdesk/metrics"
	"labdesk/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Manager struct {
	repo     *db.Repo
	activity activity.Recorder
	locks    lock.Locker
	metrics  *metrics.Metrics
	cfg      Config
	now      func() time.Time
}

type Option func(*Manager)

func WithLocker(l lock.Locker) Option { return func(m *Manager) { m.locks = l } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(repo *db.Repo, rec activity.Recorder, cfg Config, opts ...Option) *Manager {
	if rec == nil {
		rec = activity.Discard{}
	}
	m := &Manager{
		repo:     repo,
		activity: rec,
		locks:    lock.NewKeyedMutex(),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Config() Config { return m.cfg }

type SubmitInput struct {
	EquipmentID string
	RequesterID string
	BorrowDate  models.Date
	ReturnDate  models.Date
	Purpose     string
}

// Caller is the already-authenticated identity behind a request.
type Caller struct {
	ID   string
	Role string
}

type Filter struct {
	Status      string
	RequesterID string
	EquipmentID string
}

func (m *Manager) validateSubmit(in SubmitInput) error {
	switch {
	case strings.TrimSpace(in.EquipmentID) == "":
		return apperr.New(apperr.ErrValidation, "equipment id is required")
	case uuid.Validate(in.EquipmentID) != nil:
		return ErrEquipmentNotFound
	case strings.TrimSpace(in.RequesterID) == "":
		return apperr.New(apperr.ErrValidation, "requester id is required")
	case in.BorrowDate.IsZero() || in.ReturnDate.IsZero():
		return apperr.New(apperr.ErrValidation, "borrow date and return date are required")
	}
	period := span(in.BorrowDate, in.ReturnDate)
	if !period.Closed() {
		return apperr.New(apperr.ErrValidation, "return date must not be before borrow date")
	}
	if limit := m.cfg.MaxBorrowDays; limit > 0 && period.End-period.Start+1 > int64(limit) {
		return apperr.Newf(apperr.ErrValidation, "borrow period exceeds %d days", limit)
	}
	return nil
}

func span(from, to models.Date) interval.Span[int64] {
	return interval.New(from.Days(), to.Days())
}

// SubmitRequest reserves equipment for a closed date range. The availability
// and overlap checks and the insert run under a per-equipment lock inside one
// transaction that also locks the equipment row.
func (m *Manager) SubmitRequest(ctx context.Context, in SubmitInput) (*models.BorrowRequest, error) {
	if err := m.validateSubmit(in); err != nil {
		return nil, err
	}

	if m.cfg.MaxItemsPerUser > 0 {
		// user before equipment, always in this order
		unlockUser, err := m.locks.Lock(ctx, "user:"+in.RequesterID)
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		defer unlockUser()
	}
	unlock, err := m.locks.Lock(ctx, "equipment:"+in.EquipmentID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	defer unlock()

	var (
		req  *models.BorrowRequest
		name string
	)
	err = m.repo.Transaction(ctx, func(tx *db.Repo) error {
		eq, err := tx.LockEquipment(ctx, in.EquipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEquipmentNotFound
			}
			return apperr.Persistence(err)
		}
		if eq.Status != models.EquipmentAvailable {
			return ErrEquipmentUnavailable
		}

		if limit := m.cfg.MaxItemsPerUser; limit > 0 {
			n, err := tx.CountActiveRequestsByUser(ctx, in.RequesterID)
			if err != nil {
				return apperr.Persistence(err)
			}
			if n >= int64(limit) {
				return ErrBorrowLimit
			}
		}

		active, err := tx.ActiveRequestsForEquipment(ctx, in.EquipmentID)
		if err != nil {
			return apperr.Persistence(err)
		}
		booked := make([]interval.Span[int64], len(active))
		for i, a := range active {
			booked[i] = span(a.BorrowDate, a.ReturnDate)
		}
		if interval.FirstOverlap(span(in.BorrowDate, in.ReturnDate), booked, interval.OverlapsInclusive[int64]) >= 0 {
			return ErrPeriodTaken
		}

		r := &models.BorrowRequest{
			ID:          uuid.NewString(),
			EquipmentID: eq.ID,
			UserID:      in.RequesterID,
			BorrowDate:  in.BorrowDate,
			ReturnDate:  in.ReturnDate,
			Purpose:     strings.TrimSpace(in.Purpose),
			Status:      models.RequestPending,
		}
		if err := tx.CreateBorrowRequest(ctx, r); err != nil {
			return apperr.Persistence(err)
		}
		if m.cfg.AutoApproval {
			if err := m.approve(ctx, tx, r, eq, nil, "auto-approved"); err != nil {
				return err
			}
		}
		req, name = r, eq.Name
		return nil
	})
	if err != nil {
		m.countFailure(err)
		return nil, err
	}

	if req.Status == models.RequestApproved {
		m.metrics.Borrow("approved")
		m.activity.Record(ctx, activity.Entry{
			ActorID:     in.RequesterID,
			Type:        models.ActivityBorrowApproved,
			Description: "Auto-approved borrow request for: " + name,
			EntityType:  models.EntityBorrowRequest,
			EntityID:    req.ID,
		})
	} else {
		m.metrics.Borrow("submitted")
		m.activity.Record(ctx, activity.Entry{
			ActorID:     in.RequesterID,
			Type:        models.ActivityBorrowRequested,
			Description: "Requested to borrow: " + name,
			EntityType:  models.EntityBorrowRequest,
			EntityID:    req.ID,
		})
	}
	return req, nil
}

// approve moves a pending request and its equipment to the lent-out state.
// It must run inside the caller's transaction.
func (m *Manager) approve(ctx context.Context, tx *db.Repo, r *models.BorrowRequest, eq *models.Equipment, approverID *string, notes string) error {
	if eq.Status != models.EquipmentAvailable {
		return ErrEquipmentUnavailable
	}
	now := m.now().UTC()
	r.Status = models.RequestApproved
	r.ApprovedBy = approverID
	r.ApprovedAt = &now
	r.Notes = notes
	if err := tx.SaveDecision(ctx, r); err != nil {
		return apperr.Persistence(err)
	}

	borrower := r.UserID
	due := r.ReturnDate
	eq.Status = models.EquipmentBorrowed
	eq.BorrowedBy = &borrower
	eq.BorrowedAt = &now
	eq.ReturnDate = &due
	if err := tx.SaveLoanState(ctx, eq); err != nil {
		return apperr.Persistence(err)
	}
	return nil
}

// Decide approves or rejects a pending request. On approval the request and
// the equipment change in the same transaction.
func (m *Manager) Decide(ctx context.Context, requestID, approverID, decision, notes string) (*models.BorrowRequest, error) {
	if decision != models.RequestApproved && decision != models.RequestRejected {
		return nil, ErrInvalidDecision
	}
	if strings.TrimSpace(requestID) == "" {
		return nil, apperr.New(apperr.ErrValidation, "request id is required")
	}

	var (
		req  *models.BorrowRequest
		name string
	)
	err := m.repo.Transaction(ctx, func(tx *db.Repo) error {
		r, err := tx.LockBorrowRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return apperr.Persistence(err)
		}
		if r.Status != models.RequestPending {
			return ErrNotPending
		}

		eq, err := tx.LockEquipment(ctx, r.EquipmentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if decision == models.RequestApproved {
				return ErrEquipmentNotFound
			}
		case err != nil:
			return apperr.Persistence(err)
		default:
			name = eq.Name
		}

		approver := approverID
		if decision == models.RequestApproved {
			if err := m.approve(ctx, tx, r, eq, &approver, notes); err != nil {
				return err
			}
		} else {
			now := m.now().UTC()
			r.Status = models.RequestRejected
			r.ApprovedBy = &approver
			r.ApprovedAt = &now
			r.Notes = notes
			if err := tx.SaveDecision(ctx, r); err != nil {
				return apperr.Persistence(err)
			}
		}
		req = r
		return nil
	})
	if err != nil {
		m.countFailure(err)
		return nil, err
	}

	m.metrics.Borrow(decision)
	verb := "Approved"
	if decision == models.RequestRejected {
		verb = "Rejected"
	}
	m.activity.Record(ctx, activity.Entry{
		ActorID:     approverID,
		Type:        "borrow_" + decision,
		Description: fmt.Sprintf("%s borrow request for: %s", verb, name),
		EntityType:  models.EntityBorrowRequest,
		EntityID:    req.ID,
	})
	return req, nil
}

// ReturnEquipment closes an approved request and releases its equipment.
func (m *Manager) ReturnEquipment(ctx context.Context, requestID, actorID, notes string) (*models.BorrowRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, apperr.New(apperr.ErrValidation, "request id is required")
	}

	var (
		req  *models.BorrowRequest
		name string
	)
	err := m.repo.Transaction(ctx, func(tx *db.Repo) error {
		r, err := tx.LockBorrowRequest(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return apperr.Persistence(err)
		}
		if r.Status != models.RequestApproved {
			return ErrNotApproved
		}

		now := m.now().UTC()
		r.Status = models.RequestReturned
		r.ActualReturnDate = &now
		r.Notes = notes
		if err := tx.SaveReturn(ctx, r); err != nil {
			return apperr.Persistence(err)
		}

		eq, err := tx.LockEquipment(ctx, r.EquipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// equipment rows cannot be deleted while lent out
				return ErrEquipmentNotFound
			}
			return apperr.Persistence(err)
		}
		eq.Status = models.EquipmentAvailable
		eq.BorrowedBy = nil
		eq.BorrowedAt = nil
		eq.ReturnDate = nil
		if err := tx.SaveLoanState(ctx, eq); err != nil {
			return apperr.Persistence(err)
		}
		req, name = r, eq.Name
		return nil
	})
	if err != nil {
		m.countFailure(err)
		return nil, err
	}

	m.metrics.Borrow("returned")
	m.activity.Record(ctx, activity.Entry{
		ActorID:     actorID,
		Type:        models.ActivityEquipmentReturned,
		Description: "Equipment returned: " + name,
		EntityType:  models.EntityBorrowRequest,
		EntityID:    req.ID,
	})
	return req, nil
}

// ListRequests returns requests newest first. Callers without a staff role
// only ever see their own requests, whatever the filter asks for.
func (m *Manager) ListRequests(ctx context.Context, f Filter, caller Caller) ([]db.BorrowRequestRow, error) {
	q := db.BorrowQuery{Status: f.Status, UserID: f.RequesterID, EquipmentID: f.EquipmentID}
	if !models.IsStaff(caller.Role) {
		q.UserID = caller.ID
	}
	if q.Status != "" && q.Status != "all" && !models.ValidRequestStatus(q.Status) {
		return nil, apperr.Newf(apperr.ErrValidation, "unknown status %q", q.Status)
	}
	if q.UserID != "" && uuid.Validate(q.UserID) != nil {
		return nil, apperr.New(apperr.ErrValidation, "invalid user id")
	}
	if q.EquipmentID != "" && uuid.Validate(q.EquipmentID) != nil {
		return nil, apperr.New(apperr.ErrValidation, "invalid equipment id")
	}
	rows, err := m.repo.ListBorrowRequests(ctx, q)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return rows, nil
}

// GetRequest follows the same visibility rule as ListRequests; a request the
// caller may not see is reported as missing.
func (m *Manager) GetRequest(ctx context.Context, id string, caller Caller) (*db.BorrowRequestRow, error) {
	row, err := m.repo.GetBorrowRequestRow(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, apperr.Persistence(err)
	}
	if !models.IsStaff(caller.Role) && row.UserID != caller.ID {
		return nil, ErrRequestNotFound
	}
	return row, nil
}

func (m *Manager) countFailure(err error) {
	switch apperr.KindOf(err) {
	case apperr.ErrConflict:
		m.metrics.Borrow("conflict")
	case apperr.ErrPersistence:
		m.metrics.Borrow("error")
	default:
		m.metrics.Borrow("rejected_input")
	}
}
