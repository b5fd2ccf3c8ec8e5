// Package activity writes the append-only audit trail.
package activity

import (
	"context"
	"log/slog"

	"labdesk/db"
	"labdesk/metrics"
	"labdesk/models"

	"github.com/google/uuid"
)

type Entry struct {
	ActorID     string
	Type        string
	Description string
	EntityType  string
	EntityID    string
}

// Recorder appends an entry. Recording is best-effort: it never fails the
// operation that produced the entry.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type Log struct {
	repo    *db.Repo
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(repo *db.Repo, logger *slog.Logger, m *metrics.Metrics) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{repo: repo, logger: logger, metrics: m}
}

func (l *Log) Record(ctx context.Context, e Entry) {
	// the entry follows a committed change, so a cancelled request must not drop it
	ctx = context.WithoutCancel(ctx)
	err := l.repo.AppendActivity(ctx, &models.ActivityLog{
		ID:          uuid.NewString(),
		UserID:      e.ActorID,
		Type:        e.Type,
		Description: e.Description,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
	})
	if err != nil {
		l.metrics.ActivityFailed()
		l.logger.Warn("activity log write failed",
			"type", e.Type, "entity", e.EntityType, "entity_id", e.EntityID, "error", err)
	}
}

func (l *Log) Recent(ctx context.Context, limit int) ([]db.ActivityRow, error) {
	return l.repo.RecentActivity(ctx, limit)
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(context.Context, Entry) {}
