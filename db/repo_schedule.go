package db

import (
	"context"
	"strings"

	"labdesk/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ScheduleRow struct {
	models.Schedule
	CreatedByName *string `json:"createdByName,omitempty"`
}

type ScheduleQuery struct {
	Date   *models.Date
	Room   string
	Status string
}

func (r *Repo) CreateSchedule(ctx context.Context, s *models.Schedule) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *Repo) LockSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var s models.Schedule
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// BookedSlots returns the non-cancelled schedules of a room on one day.
func (r *Repo) BookedSlots(ctx context.Context, room string, date models.Date) ([]models.Schedule, error) {
	var ss []models.Schedule
	err := r.DB.WithContext(ctx).
		Where("room = ? AND date = ? AND status <> ?", room, date, models.ScheduleCancelled).
		Order("start_time").
		Find(&ss).Error
	return ss, err
}

func (r *Repo) SetScheduleStatus(ctx context.Context, s *models.Schedule) error {
	return r.DB.WithContext(ctx).Model(s).Update("status", s.Status).Error
}

func (r *Repo) DeleteSchedule(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Delete(&models.Schedule{}, "id = ?", id).Error
}

// AdvisoryLock takes a transaction-scoped Postgres advisory lock on key. It is
// a no-op on other databases.
func (r *Repo) AdvisoryLock(ctx context.Context, key string) error {
	if r.Dialect() != DriverPostgres {
		return nil
	}
	return r.DB.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (r *Repo) ListSchedules(ctx context.Context, q ScheduleQuery) ([]ScheduleRow, error) {
	qry := r.DB.WithContext(ctx).
		Table(models.ScheduleTable + " s").
		Select("s.*, u.name AS created_by_name").
		Joins("LEFT JOIN " + models.UserTable + " u ON u.id = s.created_by")
	if q.Date != nil {
		qry = qry.Where("s.date = ?", *q.Date)
	}
	if room := strings.TrimSpace(q.Room); room != "" {
		qry = qry.Where("s.room = ?", room)
	}
	if q.Status != "" && q.Status != "all" {
		qry = qry.Where("s.status = ?", q.Status)
	}

	rows := []ScheduleRow{}
	if err := qry.Order("s.date DESC, s.start_time ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetScheduleRow(ctx context.Context, id string) (*ScheduleRow, error) {
	var rows []ScheduleRow
	err := r.DB.WithContext(ctx).
		Table(models.ScheduleTable+" s").
		Select("s.*, u.name AS created_by_name").
		Joins("LEFT JOIN "+models.UserTable+" u ON u.id = s.created_by").
		Where("s.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}
