package report

import (
	"context"
	"testing"
	"time"

	"labdesk/db"
	"labdesk/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, repo *db.Repo) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []struct{ role, status string }{
		{models.RoleAdmin, models.UserActive},
		{models.RoleUser, models.UserActive},
		{models.RoleUser, models.UserInactive},
	} {
		id := uuid.NewString()
		require.NoError(t, repo.CreateUser(ctx, &models.User{
			ID: id, Name: "u" + id[:6], Email: id + "@example.com", PasswordHash: "x", Role: u.role, Status: u.status,
		}))
	}
	for i, e := range []struct{ typ, status string }{
		{"projector", models.EquipmentAvailable},
		{"projector", models.EquipmentBorrowed},
		{"laptop", models.EquipmentMaintenance},
		{"projector", models.EquipmentBroken},
		{"camera", models.EquipmentAvailable},
	} {
		require.NoError(t, repo.CreateEquipment(ctx, &models.Equipment{
			ID: uuid.NewString(), Name: e.typ, Type: e.typ, Location: "L", Status: e.status,
			SerialNumber: "SN-" + string(rune('A'+i)),
		}))
	}
}

func TestEquipmentTotalsAndTypes(t *testing.T) {
	repo := db.NewRepo(db.NewTestDB(t))
	seed(t, repo)
	r := New(repo)
	ctx := context.Background()

	totals, err := r.EquipmentTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, EquipmentTotals{Total: 5, Available: 2, Borrowed: 1, Maintenance: 1, Broken: 1}, totals)

	types, err := r.TypeDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "projector", types[0].Label)
	assert.Equal(t, int64(3), types[0].Value)
	assert.Equal(t, typeColors[0], types[0].Color)
	assert.Equal(t, "camera", types[1].Label, "ties sort by name")

	active, err := r.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active)
}

func TestEmptyDatabase(t *testing.T) {
	r := New(db.NewRepo(db.NewTestDB(t)))

	d, err := r.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, d.Stats)
	assert.Len(t, d.WeeklyData, 7)
	assert.Empty(t, d.TypeDistribution)
	assert.Empty(t, d.RecentActivities)
}

func TestWeekly(t *testing.T) {
	repo := db.NewRepo(db.NewTestDB(t))
	ctx := context.Background()
	now := time.Date(2025, time.January, 17, 12, 0, 0, 0, time.UTC) // a Friday

	add := func(created time.Time, status string) {
		require.NoError(t, repo.CreateBorrowRequest(ctx, &models.BorrowRequest{
			ID: uuid.NewString(), EquipmentID: uuid.NewString(), UserID: uuid.NewString(),
			BorrowDate: models.NewDate(2025, time.January, 20), ReturnDate: models.NewDate(2025, time.January, 21),
			Status: status, CreatedAt: created,
		}))
	}
	wednesday := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	add(wednesday, models.RequestApproved)
	add(wednesday, models.RequestReturned)
	add(wednesday, models.RequestPending)
	add(time.Date(2025, time.January, 16, 9, 0, 0, 0, time.UTC), models.RequestReturned)
	add(time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC), models.RequestApproved) // too old

	r := New(repo)
	r.now = func() time.Time { return now }
	week, err := r.Weekly(ctx)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, DayActivity{Day: "Wed", Borrowed: 2, Returned: 1}, week[3])
	assert.Equal(t, DayActivity{Day: "Thu", Borrowed: 1, Returned: 1}, week[4])
	assert.Equal(t, DayActivity{Day: "Sun"}, week[0])
}
