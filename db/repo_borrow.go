package db

import (
	"context"

	"labdesk/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BorrowRequestRow is a request joined with the names the dashboard shows.
type BorrowRequestRow struct {
	models.BorrowRequest
	EquipmentName  string  `json:"equipmentName"`
	UserName       string  `json:"userName"`
	UserEmail      string  `json:"userEmail"`
	ApprovedByName *string `json:"approvedByName,omitempty"`
}

type BorrowQuery struct {
	Status      string
	UserID      string
	EquipmentID string
}

func (r *Repo) CreateBorrowRequest(ctx context.Context, br *models.BorrowRequest) error {
	return r.DB.WithContext(ctx).Create(br).Error
}

func (r *Repo) LockBorrowRequest(ctx context.Context, id string) (*models.BorrowRequest, error) {
	var br models.BorrowRequest
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&br, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &br, nil
}

// ActiveRequestsForEquipment returns the pending and approved requests that
// reserve the equipment.
func (r *Repo) ActiveRequestsForEquipment(ctx context.Context, equipmentID string) ([]models.BorrowRequest, error) {
	var rs []models.BorrowRequest
	err := r.DB.WithContext(ctx).
		Where("equipment_id = ? AND status IN ?", equipmentID, models.ActiveRequestStatuses).
		Order("borrow_date").
		Find(&rs).Error
	return rs, err
}

func (r *Repo) CountActiveRequestsByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.BorrowRequest{}).
		Where("user_id = ? AND status IN ?", userID, models.ActiveRequestStatuses).
		Count(&n).Error
	return n, err
}

// SaveDecision persists the approval or rejection columns.
func (r *Repo) SaveDecision(ctx context.Context, br *models.BorrowRequest) error {
	return r.DB.WithContext(ctx).Model(&models.BorrowRequest{}).
		Where("id = ?", br.ID).
		Updates(map[string]any{
			"status":      br.Status,
			"approved_by": br.ApprovedBy,
			"approved_at": br.ApprovedAt,
			"notes":       br.Notes,
		}).Error
}

func (r *Repo) SaveReturn(ctx context.Context, br *models.BorrowRequest) error {
	return r.DB.WithContext(ctx).Model(&models.BorrowRequest{}).
		Where("id = ?", br.ID).
		Updates(map[string]any{
			"status":             br.Status,
			"actual_return_date": br.ActualReturnDate,
			"notes":              br.Notes,
		}).Error
}

func (r *Repo) borrowRows(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table(models.BorrowRequestTable + " br").
		Select(`
			br.*,
			COALESCE(e.name, '')  AS equipment_name,
			COALESCE(u.name, '')  AS user_name,
			COALESCE(u.email, '') AS user_email,
			a.name                AS approved_by_name
		`).
		Joins("LEFT JOIN " + models.EquipmentTable + " e ON e.id = br.equipment_id").
		Joins("LEFT JOIN " + models.UserTable + " u ON u.id = br.user_id").
		Joins("LEFT JOIN " + models.UserTable + " a ON a.id = br.approved_by")
}

func (r *Repo) ListBorrowRequests(ctx context.Context, q BorrowQuery) ([]BorrowRequestRow, error) {
	qry := r.borrowRows(ctx)
	if q.UserID != "" {
		qry = qry.Where("br.user_id = ?", q.UserID)
	}
	if q.EquipmentID != "" {
		qry = qry.Where("br.equipment_id = ?", q.EquipmentID)
	}
	if q.Status != "" && q.Status != "all" {
		qry = qry.Where("br.status = ?", q.Status)
	}

	rows := []BorrowRequestRow{}
	if err := qry.Order("br.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetBorrowRequestRow(ctx context.Context, id string) (*BorrowRequestRow, error) {
	var rows []BorrowRequestRow
	if err := r.borrowRows(ctx).Where("br.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}
