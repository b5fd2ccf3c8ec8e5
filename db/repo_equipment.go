package db

import (
	"context"
	"strings"

	"labdesk/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EquipmentRow is an equipment record with the current borrower's name.
type EquipmentRow struct {
	models.Equipment
	BorrowerName *string `json:"borrowerName,omitempty"`
}

type EquipmentQuery struct {
	Q      string // matches name, serial number or location
	Status string
	Type   string
}

func (r *Repo) CreateEquipment(ctx context.Context, e *models.Equipment) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.DB.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// LockEquipment reads the row with SELECT ... FOR UPDATE. SQLite has no row
// locks and serializes writers instead.
func (r *Repo) LockEquipment(ctx context.Context, id string) (*models.Equipment, error) {
	var e models.Equipment
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repo) equipmentRows(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Table(models.EquipmentTable + " e").
		Select("e.*, u.name AS borrower_name").
		Joins("LEFT JOIN " + models.UserTable + " u ON u.id = e.borrowed_by")
}

func (r *Repo) ListEquipment(ctx context.Context, q EquipmentQuery) ([]EquipmentRow, error) {
	qry := r.equipmentRows(ctx)
	if q.Status != "" && q.Status != "all" {
		qry = qry.Where("e.status = ?", q.Status)
	}
	if q.Type != "" && q.Type != "all" {
		qry = qry.Where("e.type = ?", q.Type)
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		pat := "%" + strings.ToLower(s) + "%"
		qry = qry.Where("LOWER(e.name) LIKE ? OR LOWER(e.serial_number) LIKE ? OR LOWER(e.location) LIKE ?", pat, pat, pat)
	}

	rows := []EquipmentRow{}
	if err := qry.Order("e.created_at DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetEquipmentRow(ctx context.Context, id string) (*EquipmentRow, error) {
	var rows []EquipmentRow
	if err := r.equipmentRows(ctx).Where("e.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// UpdateEquipmentDetails writes the descriptive fields and, when status is
// non-empty, the status. Rows that are lent out are left untouched.
func (r *Repo) UpdateEquipmentDetails(ctx context.Context, id string, fields map[string]any) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&models.Equipment{}).
		Where("id = ? AND status <> ?", id, models.EquipmentBorrowed).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// SaveLoanState writes status and the borrower columns as one unit.
func (r *Repo) SaveLoanState(ctx context.Context, e *models.Equipment) error {
	return r.DB.WithContext(ctx).Model(&models.Equipment{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"status":      e.Status,
			"borrowed_by": e.BorrowedBy,
			"borrowed_at": e.BorrowedAt,
			"return_date": e.ReturnDate,
		}).Error
}

// DeleteEquipmentUnlessBorrowed deletes in one statement so a concurrent
// approval cannot slip between the status check and the delete.
func (r *Repo) DeleteEquipmentUnlessBorrowed(ctx context.Context, id string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND status <> ?", id, models.EquipmentBorrowed).
		Delete(&models.Equipment{})
	return res.RowsAffected, res.Error
}
