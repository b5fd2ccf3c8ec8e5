// Package scheduling books rooms by time of day and keeps bookings of the same
// room and date from overlapping.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

var (
	ErrScheduleNotFound = apperr.New(apperr.ErrNotFound, "schedule not found")
	ErrRoomTaken        = apperr.New(apperr.ErrConflict, "room is already booked for this time period")
	ErrInvalidStatus    = apperr.New(apperr.ErrValidation, "status must be confirmed or cancelled")
)

type Config struct {
	// InitialStatus is given to new schedules: confirmed, or pending when
	// bookings go through a confirmation step.
	InitialStatus string `yaml:"initial_status"`
}

func DefaultConfig() Config { return Config{InitialStatus: models.ScheduleConfirmed} }

func (c Config) Validate() error {
	if c.InitialStatus != models.ScheduleConfirmed && c.InitialStatus != models.SchedulePending {
		return fmt.Errorf("initial_status must be %q or %q", models.ScheduleConfirmed, models.SchedulePending)
	}
	return nil
}

type Manager struct {
	repo     *db.Repo
	activity activity.Recorder
	locks    lock.Locker
	metrics  *metrics.Metrics
	cfg      Config
}

type Option func(*Manager)

func WithLocker(l lock.Locker) Option { return func(m *Manager) { m.locks = l } }

func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

func NewManager(repo *db.Repo, rec activity.Recorder, cfg Config, opts ...Option) *Manager {
	if rec == nil {
		rec = activity.Discard{}
	}
	if cfg.InitialStatus == "" {
		cfg.InitialStatus = models.ScheduleConfirmed
	}
	m := &Manager{repo: repo, activity: rec, locks: lock.NewKeyedMutex(), cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateInput struct {
	Subject    string
	Class      string
	Instructor string
	Room       string
	Floor      string
	Date       models.Date
	StartTime  models.Clock
	EndTime    models.Clock
	CreatorID  string
}

type Filter struct {
	Date   *models.Date
	Room   string
	Status string
}

func (in *CreateInput) normalize() error {
	for _, f := range []*string{&in.Subject, &in.Class, &in.Instructor, &in.Room, &in.Floor} {
		*f = strings.TrimSpace(*f)
		if *f == "" {
			return apperr.New(apperr.ErrValidation, "all fields are required")
		}
	}
	if in.Date.IsZero() {
		return apperr.New(apperr.ErrValidation, "all fields are required")
	}
	if !interval.New(in.StartTime, in.EndTime).HalfOpen() {
		return apperr.New(apperr.ErrValidation, "start time must be before end time")
	}
	return nil
}

func roomKey(room string, date models.Date) string {
	return "room:" + room + ":" + date.String()
}

// CreateSchedule books [StartTime, EndTime) in a room. A slot ending when
// another starts does not conflict.
func (m *Manager) CreateSchedule(ctx context.Context, in CreateInput) (*models.Schedule, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	key := roomKey(in.Room, in.Date)
	unlock, err := m.locks.Lock(ctx, key)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	defer unlock()

	var s *models.Schedule
	err = m.repo.Transaction(ctx, func(tx *db.Repo) error {
		if err := tx.AdvisoryLock(ctx, key); err != nil {
			return apperr.Persistence(err)
		}
		booked, err := tx.BookedSlots(ctx, in.Room, in.Date)
		if err != nil {
			return apperr.Persistence(err)
		}
		slots := make([]interval.Span[models.Clock], len(booked))
		for i, b := range booked {
			slots[i] = interval.New(b.StartTime, b.EndTime)
		}
		if interval.FirstOverlap(interval.New(in.StartTime, in.EndTime), slots, interval.OverlapsHalfOpen[models.Clock]) >= 0 {
			return ErrRoomTaken
		}

		s = &models.Schedule{
			ID:         uuid.NewString(),
			Subject:    in.Subject,
			Class:      in.Class,
			Instructor: in.Instructor,
			Room:       in.Room,
			Floor:      in.Floor,
			Date:       in.Date,
			StartTime:  in.StartTime,
			EndTime:    in.EndTime,
			Status:     m.cfg.InitialStatus,
			CreatedBy:  in.CreatorID,
		}
		if err := tx.CreateSchedule(ctx, s); err != nil {
			return apperr.Persistence(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			m.metrics.Schedule("conflict")
		}
		return nil, err
	}

	m.metrics.Schedule("created")
	m.activity.Record(ctx, activity.Entry{
		ActorID:     in.CreatorID,
		Type:        models.ActivityScheduleCreated,
		Description: fmt.Sprintf("Created schedule: %s - %s", s.Subject, s.Class),
		EntityType:  models.EntitySchedule,
		EntityID:    s.ID,
	})
	return s, nil
}

// SetStatus confirms or cancels a schedule. Cancelled is final: bringing a
// cancelled slot back would skip the overlap check, so it is refused, as is
// setting the status a schedule already has.
func (m *Manager) SetStatus(ctx context.Context, id, actorID, status string) (*models.Schedule, error) {
	if status != models.ScheduleConfirmed && status != models.ScheduleCancelled {
		return nil, ErrInvalidStatus
	}

	var s *models.Schedule
	err := m.repo.Transaction(ctx, func(tx *db.Repo) error {
		cur, err := tx.LockSchedule(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleNotFound
			}
			return apperr.Persistence(err)
		}
		switch {
		case cur.Status == models.ScheduleCancelled:
			return apperr.New(apperr.ErrInvalidState, "schedule is cancelled")
		case cur.Status == status:
			return apperr.Newf(apperr.ErrInvalidState, "schedule is already %s", status)
		}
		cur.Status = status
		if err := tx.SetScheduleStatus(ctx, cur); err != nil {
			return apperr.Persistence(err)
		}
		s = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.metrics.Schedule(status)
	m.activity.Record(ctx, activity.Entry{
		ActorID:     actorID,
		Type:        models.ActivityScheduleUpdated,
		Description: fmt.Sprintf("Schedule %s: %s", status, s.Subject),
		EntityType:  models.EntitySchedule,
		EntityID:    s.ID,
	})
	return s, nil
}

// DeleteSchedule removes a schedule whatever its status.
func (m *Manager) DeleteSchedule(ctx context.Context, id, actorID string) error {
	var s *models.Schedule
	err := m.repo.Transaction(ctx, func(tx *db.Repo) error {
		cur, err := tx.LockSchedule(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrScheduleNotFound
			}
			return apperr.Persistence(err)
		}
		if err := tx.DeleteSchedule(ctx, id); err != nil {
			return apperr.Persistence(err)
		}
		s = cur
		return nil
	})
	if err != nil {
		return err
	}

	m.metrics.Schedule("deleted")
	m.activity.Record(ctx, activity.Entry{
		ActorID:     actorID,
		Type:        models.ActivityScheduleDeleted,
		Description: fmt.Sprintf("Deleted schedule: %s - %s", s.Subject, s.Class),
		EntityType:  models.EntitySchedule,
		EntityID:    s.ID,
	})
	return nil
}

func (m *Manager) ListSchedules(ctx context.Context, f Filter) ([]db.ScheduleRow, error) {
	if f.Status != "" && f.Status != "all" &&
		f.Status != models.SchedulePending && f.Status != models.ScheduleConfirmed && f.Status != models.ScheduleCancelled {
		return nil, apperr.Newf(apperr.ErrValidation, "unknown status %q", f.Status)
	}
	rows, err := m.repo.ListSchedules(ctx, db.ScheduleQuery{Date: f.Date, Room: f.Room, Status: f.Status})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return rows, nil
}

func (m *Manager) GetSchedule(ctx context.Context, id string) (*db.ScheduleRow, error) {
	row, err := m.repo.GetScheduleRow(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, apperr.Persistence(err)
	}
	return row, nil
}
