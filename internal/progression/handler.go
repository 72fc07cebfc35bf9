package progression

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bkoval/fitpulse/internal/telemetry/metrics"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"
	"github.com/bkoval/fitpulse/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type RecordWorkoutRequest struct {
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	Duration   string `json:"duration"`
	Calories   int    `json:"calories"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type RecordWorkoutResponse struct {
	Stats    UserStats     `json:"stats"`
	Record   WorkoutRecord `json:"record"`
	Unlocked []Achievement `json:"unlocked"`
}

type Handler struct {
	stats          *StatsManager
	history        *HistoryLog
	challenges     *ChallengeManager
	achievements   *Evaluator
	favorites      *Favorites
	records        *PersonalRecords
	settings       *Settings
	metricsManager *metrics.Manager
}

func NewHandler(
	stats *StatsManager,
	history *HistoryLog,
	challenges *ChallengeManager,
	achievements *Evaluator,
	favorites *Favorites,
	records *PersonalRecords,
	settings *Settings,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		stats:          stats,
		history:        history,
		challenges:     challenges,
		achievements:   achievements,
		favorites:      favorites,
		records:        records,
		settings:       settings,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/progress/stats", handler.HandleGetStats).Methods("GET", "OPTIONS").Name("get-stats")
	router.HandleFunc("/progress/workout", handler.HandleRecordWorkout).Methods("POST", "OPTIONS").Name("record-workout")
	router.HandleFunc("/progress/reset", handler.HandleResetStats).Methods("POST", "OPTIONS").Name("reset-stats")
	router.HandleFunc("/progress/history", handler.HandleHistory).Methods("GET", "OPTIONS").Name("get-history")
	router.HandleFunc("/progress/history/weekly", handler.HandleWeeklyProgress).Methods("GET", "OPTIONS").Name("weekly-progress")
	router.HandleFunc("/progress/challenge", handler.HandleChallenge).Methods("GET", "OPTIONS").Name("daily-challenge")
	router.HandleFunc("/progress/achievements", handler.HandleAchievements).Methods("GET", "OPTIONS").Name("achievements")
	router.HandleFunc("/progress/achievements/recent", handler.HandleRecentAchievements).Methods("GET", "OPTIONS").Name("recent-achievements")
	router.HandleFunc("/progress/favorites", handler.HandleListFavorites).Methods("GET", "OPTIONS").Name("list-favorites")
	router.HandleFunc("/progress/favorites", handler.HandleAddFavorite).Methods("POST", "OPTIONS").Name("add-favorite")
	router.HandleFunc("/progress/favorites/{id}", handler.HandleRemoveFavorite).Methods("DELETE", "OPTIONS").Name("remove-favorite")
	router.HandleFunc("/progress/records", handler.HandleListRecords).Methods("GET", "OPTIONS").Name("list-records")
	router.HandleFunc("/progress/records", handler.HandleUpdateRecord).Methods("PUT", "OPTIONS").Name("update-record")
	router.HandleFunc("/settings", handler.HandleGetSettings).Methods("GET", "OPTIONS").Name("get-settings")
	router.HandleFunc("/settings", handler.HandleSetSettings).Methods("PUT", "OPTIONS").Name("set-settings")
}

func (handler *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.stats")
	defer span.End()

	writeJSON(w, handler.stats.Stats(ctx), http.StatusOK)
}

func (handler *Handler) HandleRecordWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.recordWorkout")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req RecordWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("record workout, unmarshal json params: %s", err)
		http.Error(w, "record workout failed", http.StatusBadRequest)
		return
	}

	if req.Calories < 0 {
		http.Error(w, "error, negative calories", http.StatusBadRequest)
		return
	}

	// the stats transaction derives weekly/monthly counts from the history
	// log plus the in-flight workout, so it has to run before the append
	stats, unlocked := handler.stats.RecordWorkout(ctx, req.Calories, parseDurationMinutes(req.Duration))
	if unlocked == nil {
		unlocked = make([]Achievement, 0)
	}

	record := handler.history.Append(ctx, WorkoutRecord{
		VideoID:    req.VideoID,
		Title:      req.Title,
		Duration:   req.Duration,
		Calories:   req.Calories,
		Category:   req.Category,
		Difficulty: req.Difficulty,
	})

	handler.metricsManager.CounterWorkoutsRecorded.Inc()
	if len(unlocked) > 0 {
		handler.metricsManager.CounterAchievementsUnlock.Add(float64(len(unlocked)))
	}

	writeJSON(w, RecordWorkoutResponse{
		Stats:    stats,
		Record:   record,
		Unlocked: unlocked,
	}, http.StatusCreated)
}

func (handler *Handler) HandleResetStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.resetStats")
	defer span.End()

	log.Warnf("user stats reset requested")
	writeJSON(w, handler.stats.ResetStats(ctx), http.StatusOK)
}

func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.history")
	defer span.End()

	writeJSON(w, handler.history.All(ctx), http.StatusOK)
}

func (handler *Handler) HandleWeeklyProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.weeklyProgress")
	defer span.End()

	progress := handler.history.WeeklyProgress(ctx)
	if progress == nil {
		progress = make([]DayProgress, 0)
	}
	writeJSON(w, progress, http.StatusOK)
}

func (handler *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.challenge")
	defer span.End()

	writeJSON(w, handler.challenges.Today(ctx), http.StatusOK)
}

func (handler *Handler) HandleAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.achievements")
	defer span.End()

	writeJSON(w, handler.achievements.Catalog(ctx), http.StatusOK)
}

func (handler *Handler) HandleRecentAchievements(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.recentAchievements")
	defer span.End()

	limit := 5
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			http.Error(w, "error, limit NaN", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	writeJSON(w, handler.achievements.RecentUnlocked(ctx, limit), http.StatusOK)
}

func (handler *Handler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.listFavorites")
	defer span.End()

	writeJSON(w, handler.favorites.List(ctx), http.StatusOK)
}

func (handler *Handler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.addFavorite")
	defer span.End()

	var video FavoriteVideo
	if err := json.NewDecoder(r.Body).Decode(&video); err != nil {
		log.Tracef("add favorite, unmarshal json params: %s", err)
		http.Error(w, "add favorite failed", http.StatusBadRequest)
		return
	}
	if video.VideoID == "" {
		http.Error(w, "error, video id empty", http.StatusBadRequest)
		return
	}

	handler.favorites.Add(ctx, video)
	writeJSON(w, handler.favorites.List(ctx), http.StatusCreated)
}

func (handler *Handler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.removeFavorite")
	defer span.End()

	videoID := mux.Vars(r)["id"]
	if videoID == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if !handler.favorites.Remove(ctx, videoID) {
		http.Error(w, "favorite not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]string{"removedId": videoID}, http.StatusOK)
}

func (handler *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.listRecords")
	defer span.End()

	writeJSON(w, handler.records.All(ctx), http.StatusOK)
}

func (handler *Handler) HandleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.updateRecord")
	defer span.End()

	var record PersonalRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Tracef("update record, unmarshal json params: %s", err)
		http.Error(w, "update record failed", http.StatusBadRequest)
		return
	}
	if record.ExerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	improved := handler.records.Update(ctx, record)
	writeJSON(w, map[string]bool{"improved": improved}, http.StatusOK)
}

func (handler *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.getSettings")
	defer span.End()

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, handler.settings.Get(ctx))
}

func (handler *Handler) HandleSetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progression.setSettings")
	defer span.End()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "set settings failed", http.StatusBadRequest)
		return
	}

	if err := handler.settings.Set(ctx, raw); err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			http.Error(w, "error, invalid settings json", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to store settings: %s", err)
		http.Error(w, "error, failed to store settings", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "stored")
}

func writeJSON(w http.ResponseWriter, payload any, statusCode int) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("failed to marshal response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, payloadJson, statusCode)
}
