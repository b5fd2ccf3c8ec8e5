package db

import (
	"context"
	"fmt"

	"labdesk/models"
)

type ActivityRow struct {
	models.ActivityLog
	UserName string `json:"userName"`
}

func (r *Repo) AppendActivity(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

// RecentActivity lists the newest entries first. Entries whose actor was
// deleted keep an empty user name.
func (r *Repo) RecentActivity(ctx context.Context, limit int) ([]ActivityRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 10
	}
	rows := []ActivityRow{}
	err := r.DB.WithContext(ctx).
		Table(models.ActivityLogTable + " al").
		Select("al.*, COALESCE(u.name, '') AS user_name").
		Joins("LEFT JOIN " + models.UserTable + " u ON u.id = al.user_id").
		Order("al.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repo) ActivityFor(ctx context.Context, entityType, entityID string) ([]models.ActivityLog, error) {
	var ls []models.ActivityLog
	err := r.DB.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at").
		Find(&ls).Error
	return ls, err
}
