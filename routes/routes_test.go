package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labdesk/app"
	"labdesk/config"
	"labdesk/db"
	"labdesk/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "secret-pass"

type testServer struct {
	t *testing.T
	a *app.App
}

func newServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.Default()
	cfg.Database = config.Database{Driver: db.DriverSQLite, DSN: ":memory:"}
	cfg.JWTSecret = "test-secret-0123456789"

	a := app.Assemble(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), db.NewTestDB(t), rdb)
	RegisterRoutes(a.Router, a)
	return &testServer{t: t, a: a}
}

func (s *testServer) seedUser(role string) *models.User {
	s.t.Helper()
	hash, err := app.HashPassword(password)
	require.NoError(s.t, err)
	id := uuid.NewString()
	u := &models.User{
		ID: id, Name: role + "-" + id[:6], Email: role + "-" + id[:6] + "@example.com",
		PasswordHash: hash, Role: role, Status: models.UserActive,
	}
	require.NoError(s.t, s.a.Repo.CreateUser(context.Background(), u))
	return u
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.a.Router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(u *models.User) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": u.Email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode(s.t, w)["token"].(string)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func (s *testServer) createEquipment(token, serial string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/equipment", token, gin.H{
		"name": "Projector", "type": "projector", "location": "Lab 1", "serialNumber": serial,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(s.t, w)["equipment"].(map[string]any)["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "labdesk_http_requests_total")
}

func TestLoginAndMe(t *testing.T) {
	s := newServer(t)
	u := s.seedUser(models.RoleTeacher)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": u.Email, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": u.Email, "password": password, "role": models.RoleAdmin})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "role must match the account")

	token := s.login(u)
	w = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, u.Email, me["email"])
	assert.NotContains(t, w.Body.String(), "passwordHash")

	stored, err := s.a.Repo.FindUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.LoginCount)
	assert.NotNil(t, stored.LastLoginAt)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", "garbage", nil).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newServer(t)
	token := s.login(s.seedUser(models.RoleUser))

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", token, nil).Code)
}

func TestRoleGuards(t *testing.T) {
	s := newServer(t)
	user := s.login(s.seedUser(models.RoleUser))
	teacher := s.login(s.seedUser(models.RoleTeacher))

	eqID := s.createEquipment(teacher, "SN-1")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"user creates schedule", http.MethodPost, "/api/schedules", user, http.StatusForbidden},
		{"user creates equipment", http.MethodPost, "/api/equipment", user, http.StatusForbidden},
		{"teacher deletes equipment", http.MethodDelete, "/api/equipment/" + eqID, teacher, http.StatusForbidden},
		{"teacher lists users", http.MethodGet, "/api/users", teacher, http.StatusForbidden},
		{"user reads activity", http.MethodGet, "/api/activity", user, http.StatusForbidden},
		{"user decides request", http.MethodPatch, "/api/borrow/" + uuid.NewString() + "/status", user, http.StatusForbidden},
		{"user lists equipment", http.MethodGet, "/api/equipment", user, http.StatusOK},
		{"anonymous lists equipment", http.MethodGet, "/api/equipment", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, tt.path, tt.token, gin.H{})
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestBorrowFlow(t *testing.T) {
	s := newServer(t)
	alice := s.seedUser(models.RoleUser)
	bob := s.seedUser(models.RoleUser)
	aliceTok, bobTok := s.login(alice), s.login(bob)
	teacher := s.login(s.seedUser(models.RoleTeacher))
	admin := s.login(s.seedUser(models.RoleAdmin))
	eqID := s.createEquipment(teacher, "SN-FLOW")

	w := s.do(http.MethodPost, "/api/borrow", aliceTok, gin.H{
		"equipmentId": eqID, "borrowDate": "2025-01-10", "returnDate": "2025-01-15", "purpose": "lecture",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	req := decode(t, w)["request"].(map[string]any)
	reqID := req["id"].(string)
	assert.Equal(t, models.RequestPending, req["status"])

	// touching the return day counts as overlap
	w = s.do(http.MethodPost, "/api/borrow", bobTok, gin.H{
		"equipmentId": eqID, "borrowDate": "2025-01-15", "returnDate": "2025-01-16",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "already requested")

	w = s.do(http.MethodPost, "/api/borrow", bobTok, gin.H{
		"equipmentId": eqID, "borrowDate": "2025-01-12", "returnDate": "2025-01-10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/borrow", bobTok, gin.H{
		"equipmentId": uuid.NewString(), "borrowDate": "2025-01-20", "returnDate": "2025-01-21",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPatch, "/api/borrow/"+reqID+"/status", teacher, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])

	w = s.do(http.MethodGet, "/api/equipment/"+eqID, aliceTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	eq := decode(t, w)["equipment"].(map[string]any)
	assert.Equal(t, models.EquipmentBorrowed, eq["status"])
	assert.Equal(t, alice.ID, eq["borrowedBy"])
	assert.Equal(t, alice.Name, eq["borrowerName"])

	w = s.do(http.MethodPatch, "/api/borrow/"+reqID+"/status", teacher, gin.H{"status": "rejected"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a decided request cannot be decided again")

	w = s.do(http.MethodDelete, "/api/equipment/"+eqID, admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, "/api/equipment/"+eqID, teacher, gin.H{"status": "maintenance"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/borrow/"+reqID+"/return", teacher, gin.H{"notes": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPatch, "/api/borrow/"+reqID+"/return", teacher, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/equipment/"+eqID, aliceTok, nil)
	eq = decode(t, w)["equipment"].(map[string]any)
	assert.Equal(t, models.EquipmentAvailable, eq["status"])
	assert.Nil(t, eq["borrowedBy"])

	w = s.do(http.MethodDelete, "/api/equipment/"+eqID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/equipment/"+eqID, admin, nil).Code)
}

func TestBorrowVisibility(t *testing.T) {
	s := newServer(t)
	alice := s.seedUser(models.RoleUser)
	aliceTok := s.login(alice)
	bobTok := s.login(s.seedUser(models.RoleUser))
	teacher := s.login(s.seedUser(models.RoleTeacher))
	eqA := s.createEquipment(teacher, "SN-A")
	eqB := s.createEquipment(teacher, "SN-B")

	w := s.do(http.MethodPost, "/api/borrow", aliceTok, gin.H{"equipmentId": eqA, "borrowDate": "2025-02-01", "returnDate": "2025-02-02"})
	require.Equal(t, http.StatusCreated, w.Code)
	aliceReq := decode(t, w)["request"].(map[string]any)["id"].(string)
	w = s.do(http.MethodPost, "/api/borrow", bobTok, gin.H{"equipmentId": eqB, "borrowDate": "2025-02-01", "returnDate": "2025-02-02"})
	require.Equal(t, http.StatusCreated, w.Code)

	count := func(token, query string) int {
		w := s.do(http.MethodGet, "/api/borrow"+query, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return len(decode(t, w)["requests"].([]any))
	}
	assert.Equal(t, 2, count(teacher, ""))
	assert.Equal(t, 1, count(aliceTok, ""))
	assert.Equal(t, 1, count(bobTok, "?userId="+alice.ID), "plain users only ever see their own requests")
	assert.Equal(t, 0, count(bobTok, "?equipmentId="+eqA))
	assert.Equal(t, 1, count(teacher, "?userId="+alice.ID))
	assert.Equal(t, 0, count(teacher, "?status=approved"))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/borrow/"+aliceReq, bobTok, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/borrow/"+aliceReq, aliceTok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/borrow/not-a-uuid", aliceTok, nil).Code)
}

func TestBorrowRejectsMalformedIDs(t *testing.T) {
	s := newServer(t)
	userTok := s.login(s.seedUser(models.RoleUser))
	teacher := s.login(s.seedUser(models.RoleTeacher))

	w := s.do(http.MethodPost, "/api/borrow", userTok, gin.H{"equipmentId": "abc", "borrowDate": "2025-02-01", "returnDate": "2025-02-02"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	for _, query := range []string{"?equipmentId=abc", "?userId=abc"} {
		w = s.do(http.MethodGet, "/api/borrow"+query, teacher, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
	w = s.do(http.MethodGet, "/api/borrow?equipmentId="+uuid.NewString(), teacher, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScheduleAPI(t *testing.T) {
	s := newServer(t)
	teacher := s.login(s.seedUser(models.RoleTeacher))
	user := s.login(s.seedUser(models.RoleUser))

	slot := func(start, end string) gin.H {
		return gin.H{
			"subject": "Physics", "class": "10A", "instructor": "Dr. Lee",
			"room": "A101", "floor": "1", "date": "2025-03-03", "startTime": start, "endTime": end,
		}
	}

	w := s.do(http.MethodPost, "/api/schedules", teacher, slot("08:00", "09:30"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sc := decode(t, w)["schedule"].(map[string]any)
	assert.Equal(t, "08:00", sc["startTime"])
	assert.Equal(t, models.ScheduleConfirmed, sc["status"])
	id := sc["id"].(string)

	w = s.do(http.MethodPost, "/api/schedules", teacher, slot("09:00", "10:00"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "already booked")

	w = s.do(http.MethodPost, "/api/schedules", teacher, slot("09:30", "10:30"))
	assert.Equal(t, http.StatusCreated, w.Code, "back-to-back slots do not collide")

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/schedules", teacher, slot("10:00", "09:00")).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/schedules", teacher, slot("25:00", "26:00")).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/schedules", teacher, slot("", "09:00")).Code)

	w = s.do(http.MethodGet, "/api/schedules?date=2025-03-03&room=A101", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["schedules"], 2)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/schedules?date=March", user, nil).Code)

	w = s.do(http.MethodPatch, "/api/schedules/"+id+"/status", teacher, gin.H{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPatch, "/api/schedules/"+id+"/status", teacher, gin.H{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.ScheduleCancelled, decode(t, w)["schedule"].(map[string]any)["status"])

	// the cancelled slot is free again
	w = s.do(http.MethodPost, "/api/schedules", teacher, slot("08:00", "09:00"))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodDelete, "/api/schedules/"+id, teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/schedules/"+id, user, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/schedules/"+id, teacher, nil).Code)
}

func TestEquipmentAPI(t *testing.T) {
	s := newServer(t)
	teacher := s.login(s.seedUser(models.RoleTeacher))
	id := s.createEquipment(teacher, "SN-DUP")

	w := s.do(http.MethodPost, "/api/equipment", teacher, gin.H{
		"name": "Other", "type": "camera", "location": "Lab 2", "serialNumber": "SN-DUP",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Serial number already exists", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/equipment", teacher, gin.H{"name": "Incomplete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/equipment/"+id, teacher, gin.H{"status": models.EquipmentBorrowed})
	assert.Equal(t, http.StatusBadRequest, w.Code, "borrowed is only set through approval")

	w = s.do(http.MethodPut, "/api/equipment/"+id, teacher, gin.H{"location": "Lab 9", "status": models.EquipmentMaintenance})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	eq := decode(t, w)["equipment"].(map[string]any)
	assert.Equal(t, "Lab 9", eq["location"])
	assert.Equal(t, "Projector", eq["name"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/api/equipment/"+uuid.NewString(), teacher, gin.H{"name": "x"}).Code)

	w = s.do(http.MethodGet, "/api/equipment?status=maintenance", teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["equipment"], 1)
	w = s.do(http.MethodGet, "/api/equipment?search=lab%209", teacher, nil)
	assert.Len(t, decode(t, w)["equipment"], 1)

	w = s.do(http.MethodGet, "/api/equipment/stats", teacher, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.EqualValues(t, 1, stats["maintenance"])
}

func TestUserManagement(t *testing.T) {
	s := newServer(t)
	admin := s.seedUser(models.RoleAdmin)
	adminTok := s.login(admin)

	body := gin.H{"fullName": "Carol", "email": "Carol@Example.com", "password": "pw-123456", "role": models.RoleUser}
	w := s.do(http.MethodPost, "/api/users", adminTok, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	carol := decode(t, w)["user"].(map[string]any)
	carolID := carol["id"].(string)
	assert.Equal(t, "carol@example.com", carol["email"])

	w = s.do(http.MethodPost, "/api/users", adminTok, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already exists", decode(t, w)["error"])

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/users", adminTok, gin.H{"fullName": "X", "email": "x@example.com", "password": "pw-123456", "role": "root"}).Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "carol@example.com", "password": "pw-123456"})
	require.Equal(t, http.StatusOK, w.Code)
	carolTok := decode(t, w)["token"].(string)

	w = s.do(http.MethodGet, "/api/users?search=carol", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	// carol holds an active request, so she cannot be deleted yet
	teacherTok := s.login(s.seedUser(models.RoleTeacher))
	eqID := s.createEquipment(teacherTok, "SN-U")
	w = s.do(http.MethodPost, "/api/borrow", carolTok, gin.H{"equipmentId": eqID, "borrowDate": "2025-04-01", "returnDate": "2025-04-02"})
	require.Equal(t, http.StatusCreated, w.Code)
	reqID := decode(t, w)["request"].(map[string]any)["id"].(string)

	w = s.do(http.MethodDelete, "/api/users/"+carolID, adminTok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, "/api/users/"+carolID+"/status", adminTok, gin.H{"status": models.UserInactive})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", carolTok, nil).Code)
	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "carol@example.com", "password": "pw-123456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/borrow/"+reqID+"/status", teacherTok, gin.H{"status": "rejected"}).Code)
	w = s.do(http.MethodDelete, "/api/users/"+carolID, adminTok, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/users/"+carolID, adminTok, nil).Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/users/"+admin.ID, adminTok, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPatch, "/api/users/"+admin.ID+"/status", adminTok, gin.H{"status": "gone"}).Code)
}

func TestDashboardAndActivity(t *testing.T) {
	s := newServer(t)
	teacher := s.seedUser(models.RoleTeacher)
	tok := s.login(teacher)
	eqID := s.createEquipment(tok, "SN-D")

	w := s.do(http.MethodGet, "/api/dashboard/stats", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode(t, w)
	assert.EqualValues(t, 1, d["stats"].(map[string]any)["totalEquipment"])
	assert.Len(t, d["weeklyData"], 7)
	assert.Len(t, d["recentActivities"], 1)

	w = s.do(http.MethodGet, "/api/activity", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	acts := decode(t, w)["activities"].([]any)
	require.Len(t, acts, 1)
	first := acts[0].(map[string]any)
	assert.Equal(t, models.ActivityEquipmentCreated, first["type"])
	assert.Equal(t, teacher.Name, first["userName"])

	w = s.do(http.MethodGet, "/api/activity?entityType=equipment&entityId="+eqID, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["activities"], 1)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/equipment", nil)
	req.Header.Set("Origin", s.a.Config.WebOrigins[0])
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	s.a.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "PATCH"))
}
