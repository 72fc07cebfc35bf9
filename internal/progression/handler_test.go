package progression

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bkoval/fitpulse/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerTestSetup struct {
	engine *testEngine
	router *mux.Router
}

func newHandlerTestSetup(now func() time.Time) *handlerTestSetup {
	engine := newTestEngine(now)
	handler := NewHandler(
		engine.stats,
		engine.history,
		engine.challenges,
		engine.achievements,
		NewFavorites(engine.store, now),
		NewPersonalRecords(engine.store, now),
		NewSettings(engine.store),
		metrics.NewTestManager(),
	)
	router := mux.NewRouter()
	handler.SetupRoutes(router)
	return &handlerTestSetup{
		engine: engine,
		router: router,
	}
}

func (s *handlerTestSetup) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_GetStats(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	rr := setup.do(httptest.NewRequest("GET", "/progress/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var stats UserStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalWorkouts)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, now, stats.JoinDate)
}

func TestHandler_RecordWorkout(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	body := `{
		"videoId": "vid-42",
		"title": "Full Body Burn",
		"duration": "45:00",
		"calories": 300,
		"category": "strength",
		"difficulty": "intermediate"
	}`
	req := httptest.NewRequest("POST", "/progress/workout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := setup.do(req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp RecordWorkoutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.Stats.TotalWorkouts)
	assert.Equal(t, 300, resp.Stats.TotalCalories)
	assert.Equal(t, 45, resp.Stats.TotalMinutes)
	assert.Equal(t, 1, resp.Stats.CurrentStreak)
	assert.Equal(t, 200, resp.Stats.Experience)

	assert.Equal(t, "vid-42", resp.Record.VideoID)
	assert.Equal(t, 45, resp.Record.Minutes)
	assert.Equal(t, now.UnixNano(), resp.Record.ID)

	require.Len(t, resp.Unlocked, 1)
	assert.Equal(t, "first-workout", resp.Unlocked[0].ID)

	// the workout landed in the history log
	history := setup.engine.history.All(req.Context())
	require.Len(t, history, 1)
	assert.Equal(t, "Full Body Burn", history[0].Title)
}

func TestHandler_RecordWorkout_BadRequests(t *testing.T) {
	setup := newHandlerTestSetup(fixedNow(time.Now()))

	// missing content type
	req := httptest.NewRequest("POST", "/progress/workout", strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, setup.do(req).Code)

	// broken json
	req = httptest.NewRequest("POST", "/progress/workout", strings.NewReader(`{"calories":`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, setup.do(req).Code)

	// negative calories
	req = httptest.NewRequest("POST", "/progress/workout", strings.NewReader(`{"calories": -10}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, setup.do(req).Code)
}

func TestHandler_ResetStats(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	body := `{"videoId": "vid-1", "duration": "30:00", "calories": 200}`
	req := httptest.NewRequest("POST", "/progress/workout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, setup.do(req).Code)

	rr := setup.do(httptest.NewRequest("POST", "/progress/reset", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var stats UserStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.TotalWorkouts)
	assert.Equal(t, 0, stats.Experience)

	// history is separate state and survives the reset
	rr = setup.do(httptest.NewRequest("GET", "/progress/history", nil))
	var history []WorkoutRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	assert.Len(t, history, 1)
}

func TestHandler_ChallengeAndWeekly(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	rr := setup.do(httptest.NewRequest("GET", "/progress/challenge", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var challenge DailyChallenge
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &challenge))
	assert.Equal(t, "challenge-2025-03-10", challenge.ID)

	rr = setup.do(httptest.NewRequest("GET", "/progress/history/weekly", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestHandler_Achievements(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	rr := setup.do(httptest.NewRequest("GET", "/progress/achievements", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var catalog []Achievement
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &catalog))
	assert.Len(t, catalog, len(achievementCatalog))

	rr = setup.do(httptest.NewRequest("GET", "/progress/achievements/recent", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))

	rr = setup.do(httptest.NewRequest("GET", "/progress/achievements/recent?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = setup.do(httptest.NewRequest("GET", "/progress/achievements/recent?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Favorites(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	body := `{"videoId": "vid-1", "title": "Morning Yoga", "category": "yoga"}`
	rr := setup.do(httptest.NewRequest("POST", "/progress/favorites", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var favorites []FavoriteVideo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &favorites))
	require.Len(t, favorites, 1)
	assert.Equal(t, "vid-1", favorites[0].VideoID)

	rr = setup.do(httptest.NewRequest("POST", "/progress/favorites", strings.NewReader(`{"title": "no id"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = setup.do(httptest.NewRequest("DELETE", "/progress/favorites/vid-1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = setup.do(httptest.NewRequest("DELETE", "/progress/favorites/vid-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = setup.do(httptest.NewRequest("GET", "/progress/favorites", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
}

func TestHandler_Records(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(fixedNow(now))

	body := `{"exerciseId": "pushups", "exercise": "Push Ups", "value": 30, "unit": "reps"}`
	rr := setup.do(httptest.NewRequest("PUT", "/progress/records", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"improved": true}`, rr.Body.String())

	body = `{"exerciseId": "pushups", "value": 20}`
	rr = setup.do(httptest.NewRequest("PUT", "/progress/records", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"improved": false}`, rr.Body.String())

	rr = setup.do(httptest.NewRequest("PUT", "/progress/records", strings.NewReader(`{"value": 10}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = setup.do(httptest.NewRequest("GET", "/progress/records", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var records map[string]PersonalRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Contains(t, records, "pushups")
	assert.Equal(t, 30, records["pushups"].Value)
}

func TestHandler_Settings(t *testing.T) {
	setup := newHandlerTestSetup(fixedNow(time.Now()))

	rr := setup.do(httptest.NewRequest("GET", "/settings", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())

	rr = setup.do(httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"theme":"dark"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = setup.do(httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"theme":`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = setup.do(httptest.NewRequest("GET", "/settings", nil))
	assert.JSONEq(t, `{"theme":"dark"}`, rr.Body.String())
}

func TestHandler_WorkoutHistoryRoundTrip(t *testing.T) {
	current := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	setup := newHandlerTestSetup(func() time.Time { return current })

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"videoId": "vid-%d", "duration": "20:00", "calories": 150}`, i)
		req := httptest.NewRequest("POST", "/progress/workout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		require.Equal(t, http.StatusCreated, setup.do(req).Code)
		current = current.Add(time.Minute)
	}

	rr := setup.do(httptest.NewRequest("GET", "/progress/history", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var history []WorkoutRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 3)
	assert.Equal(t, "vid-2", history[0].VideoID)
	assert.Equal(t, "vid-0", history[2].VideoID)
}
