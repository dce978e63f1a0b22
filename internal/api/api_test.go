package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitlog/internal/constants"
	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/service"
	"github.com/julianstephens/habitlog/internal/storage"
	"github.com/julianstephens/habitlog/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	settings := storage.DefaultSettings()
	settings.Timezone = "UTC"
	require.NoError(t, store.SaveSettings(context.Background(), settings))

	svc := service.NewHabitService(store, service.WithClock(func() time.Time { return fixedNow }))
	return NewServer(svc, cfg)
}

func doRequest(t *testing.T, s *Server, method, path, owner string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if owner != "" {
		req.Header.Set(constants.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createTestHabit(t *testing.T, s *Server, owner, name string) models.Habit {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/habits", owner, map[string]string{
		"name": name,
		"type": "physical",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Habit](t, rec)
}

func TestOwnerHeaderRequired(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := doRequest(t, s, http.MethodGet, "/api/habits", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Contains(t, body.Error, constants.OwnerHeader)
}

func TestHabitCRUD(t *testing.T) {
	s := newTestServer(t, Config{})

	habit := createTestHabit(t, s, "alice", "Run")
	assert.NotEmpty(t, habit.ID)
	assert.Equal(t, "alice", habit.OwnerID)
	assert.Equal(t, models.HabitTypePhysical, habit.Type)

	rec := doRequest(t, s, http.MethodGet, "/api/habits", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	habits := decode[[]models.Habit](t, rec)
	require.Len(t, habits, 1)
	assert.Equal(t, habit.ID, habits[0].ID)

	rec = doRequest(t, s, http.MethodPut, "/api/habits/"+habit.ID, "alice", map[string]string{"name": "Run 5k"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Habit](t, rec)
	assert.Equal(t, "Run 5k", updated.Name)
	assert.NotNil(t, updated.UpdatedAt)

	rec = doRequest(t, s, http.MethodGet, "/api/habits/"+habit.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Run 5k", decode[models.Habit](t, rec).Name)

	rec = doRequest(t, s, http.MethodDelete, "/api/habits/"+habit.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Habit deleted successfully", decode[messageBody](t, rec).Message)

	rec = doRequest(t, s, http.MethodGet, "/api/habits/"+habit.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateHabitValidation(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing name", body: map[string]string{"type": "mental"}},
		{name: "unknown type", body: map[string]string{"name": "Read", "type": "hobby"}},
		{name: "malformed json", body: `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/habits", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rec).Error)
		})
	}
}

func TestForeignHabitIsNotFound(t *testing.T) {
	s := newTestServer(t, Config{})
	habit := createTestHabit(t, s, "alice", "Run")

	for _, tc := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/habits/" + habit.ID, nil},
		{http.MethodPut, "/api/habits/" + habit.ID, map[string]string{"name": "Mine now"}},
		{http.MethodDelete, "/api/habits/" + habit.ID, nil},
		{http.MethodGet, "/api/habits/" + habit.ID + "/stats", nil},
		{http.MethodPost, "/api/habit-logs", map[string]interface{}{"habitId": habit.ID, "date": "2024-06-15", "completed": true}},
	} {
		rec := doRequest(t, s, tc.method, tc.path, "mallory", tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}

	// the habit is untouched
	rec := doRequest(t, s, http.MethodGet, "/api/habits/"+habit.ID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Run", decode[models.Habit](t, rec).Name)
}

func TestRecordLogCreatesThenMerges(t *testing.T) {
	s := newTestServer(t, Config{})
	habit := createTestHabit(t, s, "alice", "Run")

	rec := doRequest(t, s, http.MethodPost, "/api/habit-logs", "alice", map[string]interface{}{
		"habitId":   habit.ID,
		"date":      "2024-06-15",
		"completed": true,
		"notes":     "felt good",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[models.HabitLog](t, rec)
	assert.True(t, first.Completed)
	assert.Equal(t, "felt good", first.Notes)

	rec = doRequest(t, s, http.MethodPost, "/api/habit-logs", "alice", map[string]interface{}{
		"habitId":   habit.ID,
		"date":      "2024-06-15",
		"completed": false,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[models.HabitLog](t, rec)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.Completed)
	assert.Equal(t, "felt good", second.Notes)

	rec = doRequest(t, s, http.MethodGet, "/api/habit-logs?habitId="+habit.ID+"&date=2024-06-15", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[[]models.HabitLog](t, rec)
	require.Len(t, logs, 1)
	assert.Equal(t, first.ID, logs[0].ID)
}

func TestRecordLogValidation(t *testing.T) {
	s := newTestServer(t, Config{})
	habit := createTestHabit(t, s, "alice", "Run")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing habit", body: map[string]interface{}{"date": "2024-06-15"}},
		{name: "missing date", body: map[string]interface{}{"habitId": habit.ID}},
		{name: "bad date", body: map[string]interface{}{"habitId": habit.ID, "date": "15/06/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/habit-logs", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestToggleLog(t *testing.T) {
	s := newTestServer(t, Config{})
	habit := createTestHabit(t, s, "alice", "Run")
	body := map[string]string{"habitId": habit.ID, "date": "2024-06-15"}

	rec := doRequest(t, s, http.MethodPost, "/api/habit-logs/toggle", "alice", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[models.HabitLog](t, rec).Completed)

	rec = doRequest(t, s, http.MethodPost, "/api/habit-logs/toggle", "alice", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[models.HabitLog](t, rec).Completed)
}

func TestHabitStatsAndDashboard(t *testing.T) {
	s := newTestServer(t, Config{})
	habit := createTestHabit(t, s, "alice", "Run")

	for _, date := range []string{"2024-06-13", "2024-06-14", "2024-06-15"} {
		rec := doRequest(t, s, http.MethodPost, "/api/habit-logs", "alice", map[string]interface{}{
			"habitId": habit.ID, "date": date, "completed": true,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doRequest(t, s, http.MethodGet, "/api/habits/"+habit.ID+"/stats?window=10", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode[models.HabitStats](t, rec)
	assert.Equal(t, "2024-06-15", stats.Date)
	assert.True(t, stats.CompletedToday)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 10, stats.WindowDays)
	assert.InDelta(t, 30.0, stats.CompletionRate, 0.001)

	rec = doRequest(t, s, http.MethodGet, "/api/habits/"+habit.ID+"/stats?today=2024-06-12", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats = decode[models.HabitStats](t, rec)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, constants.DefaultWindowDays, stats.WindowDays)

	rec = doRequest(t, s, http.MethodGet, "/api/dashboard?window=7", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decode[models.Dashboard](t, rec)
	assert.Equal(t, "2024-06-15", dash.Date)
	assert.Equal(t, 1, dash.Today.Completed)
	assert.Equal(t, 1, dash.Today.Total)
	require.Len(t, dash.Habits, 1)
	assert.Equal(t, habit.ID, dash.Habits[0].HabitID)
}

func TestAnalyticsParamValidation(t *testing.T) {
	s := newTestServer(t, Config{})

	for _, path := range []string{
		"/api/dashboard?window=abc",
		"/api/dashboard?window=-3",
		"/api/dashboard?today=yesterday",
	} {
		rec := doRequest(t, s, http.MethodGet, path, "alice", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestRateLimitPerOwner(t *testing.T) {
	s := newTestServer(t, Config{RateLimitPerSec: 0.001, RateLimitBurst: 2})

	for i := 0; i < 2; i++ {
		rec := doRequest(t, s, http.MethodGet, "/api/habits", "alice", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := doRequest(t, s, http.MethodGet, "/api/habits", "alice", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other owners have their own bucket
	rec = doRequest(t, s, http.MethodGet, "/api/habits", "bob", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newRateLimiter(1, 1, nil)
	rl.get("alice")
	rl.get("bob")
	rl.mu.Lock()
	rl.limiters["alice"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanup(time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.limiters, "alice")
	assert.Contains(t, rl.limiters, "bob")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Config{})
	habit := createTestHabit(t, s, "alice", "Run")
	doRequest(t, s, http.MethodPost, "/api/habit-logs/toggle", "alice", map[string]string{
		"habitId": habit.ID, "date": "2024-06-15",
	})

	rec := doRequest(t, s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `habitlog_http_requests_total{method="POST",path="/api/habits",status="201"} 1`)
	assert.Contains(t, body, `habitlog_habit_logs_writes_total{op="toggle",outcome="created"} 1`)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := doRequest(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Required("name"), http.StatusBadRequest},
		{apperr.NotFound("habit", "h1"), http.StatusNotFound},
		{apperr.Transient(apperr.ErrConflictLost), http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	s := newTestServer(t, Config{ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
