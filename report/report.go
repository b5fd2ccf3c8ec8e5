// Package report computes the dashboard aggregates. Queries are built with
// goqu for the dialect of the connected database and run on the underlying
// *sql.DB.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"labdesk/db"
	"labdesk/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var typeColors = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6"}

type EquipmentTotals struct {
	Total       int64 `json:"total"`
	Available   int64 `json:"available"`
	Borrowed    int64 `json:"borrowed"`
	Maintenance int64 `json:"maintenance"`
	Broken      int64 `json:"broken"`
}

type DayActivity struct {
	Day      string `json:"day"`
	Borrowed int64  `json:"borrowed"`
	Returned int64  `json:"returned"`
}

type TypeShare struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type Stats struct {
	TotalEquipment    int64 `json:"totalEquipment"`
	CurrentlyBorrowed int64 `json:"currentlyBorrowed"`
	NeedsMaintenance  int64 `json:"needsMaintenance"`
	ActiveUsers       int64 `json:"activeUsers"`
}

type Dashboard struct {
	Stats            Stats            `json:"stats"`
	WeeklyData       []DayActivity    `json:"weeklyData"`
	TypeDistribution []TypeShare      `json:"typeDistribution"`
	RecentActivities []db.ActivityRow `json:"recentActivities"`
}

type Reporter struct {
	repo    *db.Repo
	dialect goqu.DialectWrapper
	now     func() time.Time
}

func New(repo *db.Repo) *Reporter {
	name := "postgres"
	if repo.Dialect() == db.DriverSQLite {
		name = "sqlite3"
	}
	return &Reporter{repo: repo, dialect: goqu.Dialect(name), now: time.Now}
}

func (r *Reporter) query(ctx context.Context, ds *goqu.SelectDataset) (*sql.Rows, error) {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	sqlDB, err := r.repo.DB.DB()
	if err != nil {
		return nil, err
	}
	return sqlDB.QueryContext(ctx, q, args...)
}

func countWhere(col string, value any) exp.SQLFunctionExpression {
	// literals rather than placeholders so Postgres can type the CASE
	return goqu.COALESCE(goqu.SUM(goqu.Case().When(goqu.C(col).Eq(value), goqu.L("1")).Else(goqu.L("0"))), goqu.L("0"))
}

func (r *Reporter) EquipmentTotals(ctx context.Context) (EquipmentTotals, error) {
	ds := r.dialect.From(models.EquipmentTable).Select(
		goqu.COUNT(goqu.Star()).As("total"),
		countWhere("status", models.EquipmentAvailable).As("available"),
		countWhere("status", models.EquipmentBorrowed).As("borrowed"),
		countWhere("status", models.EquipmentMaintenance).As("maintenance"),
		countWhere("status", models.EquipmentBroken).As("broken"),
	)
	rows, err := r.query(ctx, ds)
	if err != nil {
		return EquipmentTotals{}, err
	}
	defer rows.Close()

	var t EquipmentTotals
	if rows.Next() {
		if err := rows.Scan(&t.Total, &t.Available, &t.Borrowed, &t.Maintenance, &t.Broken); err != nil {
			return EquipmentTotals{}, err
		}
	}
	return t, rows.Err()
}

func (r *Reporter) ActiveUsers(ctx context.Context) (int64, error) {
	ds := r.dialect.From(models.UserTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("status").Eq(models.UserActive))
	rows, err := r.query(ctx, ds)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// Weekly buckets the last seven days of requests by the weekday they were
// created: borrowed counts approved and returned requests, returned only the
// latter.
func (r *Reporter) Weekly(ctx context.Context) ([]DayActivity, error) {
	since := r.now().UTC().AddDate(0, 0, -7)
	ds := r.dialect.From(models.BorrowRequestTable).
		Select("created_at", "status").
		Where(
			goqu.C("created_at").Gte(since),
			goqu.C("status").In(models.RequestApproved, models.RequestReturned),
		)
	rows, err := r.query(ctx, ds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	week := make([]DayActivity, len(dayNames))
	for i, d := range dayNames {
		week[i].Day = d
	}
	for rows.Next() {
		var (
			created time.Time
			status  string
		)
		if err := rows.Scan(&created, &status); err != nil {
			return nil, err
		}
		d := &week[created.Weekday()]
		d.Borrowed++
		if status == models.RequestReturned {
			d.Returned++
		}
	}
	return week, rows.Err()
}

func (r *Reporter) TypeDistribution(ctx context.Context) ([]TypeShare, error) {
	ds := r.dialect.From(models.EquipmentTable).
		Select(goqu.C("type"), goqu.COUNT(goqu.Star()).As("n")).
		GroupBy("type").
		Order(goqu.C("n").Desc(), goqu.C("type").Asc())
	rows, err := r.query(ctx, ds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := []TypeShare{}
	for rows.Next() {
		var s TypeShare
		if err := rows.Scan(&s.Label, &s.Value); err != nil {
			return nil, err
		}
		s.Color = typeColors[len(shares)%len(typeColors)]
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func (r *Reporter) Dashboard(ctx context.Context) (*Dashboard, error) {
	totals, err := r.EquipmentTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("equipment totals: %w", err)
	}
	active, err := r.ActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}
	weekly, err := r.Weekly(ctx)
	if err != nil {
		return nil, fmt.Errorf("weekly activity: %w", err)
	}
	types, err := r.TypeDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("type distribution: %w", err)
	}
	recent, err := r.repo.RecentActivity(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return &Dashboard{
		Stats: Stats{
			TotalEquipment:    totals.Total,
			CurrentlyBorrowed: totals.Borrowed,
			NeedsMaintenance:  totals.Maintenance,
			ActiveUsers:       active,
		},
		WeeklyData:       weekly,
		TypeDistribution: types,
		RecentActivities: recent,
	}, nil
}
