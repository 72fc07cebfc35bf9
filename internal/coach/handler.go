package coach

import (
	"encoding/json"
	"net/http"

	"github.com/bkoval/fitpulse/internal/middleware"
	"github.com/bkoval/fitpulse/internal/telemetry/metrics"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"
	"github.com/bkoval/fitpulse/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// fallbackReplies are served whenever the coach AI is unreachable or
// returns garbage. The app treats them like any other reply.
var fallbackReplies = []string{
	"Keep moving! Even a short session today beats a perfect plan tomorrow.",
	"Listen to your body, stay consistent, and the results will follow.",
	"Great effort takes rest too. Hydrate, sleep well, and come back stronger.",
}

var fallbackPlan = WorkoutPlan{
	CoachNote: "A balanced starter week. Adjust the pace to how you feel.",
	Days: []PlanDay{
		{Day: "Monday", Focus: "Full Body", Workouts: []string{"Bodyweight Circuit", "Core Finisher"}},
		{Day: "Tuesday", Focus: "Cardio", Workouts: []string{"Brisk Walk or Light Jog"}},
		{Day: "Wednesday", Focus: "Rest", Workouts: []string{"Stretching"}},
		{Day: "Thursday", Focus: "Strength", Workouts: []string{"Lower Body Basics"}},
		{Day: "Friday", Focus: "Cardio", Workouts: []string{"HIIT Starter"}},
		{Day: "Saturday", Focus: "Mobility", Workouts: []string{"Yoga Flow"}},
		{Day: "Sunday", Focus: "Rest", Workouts: []string{"Recovery Walk"}},
	},
}

type MessageRequest struct {
	ConversationID string    `json:"conversationId"`
	Messages       []Message `json:"messages"`
}

type MessageResponse struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
	Fallback       bool   `json:"fallback"`
}

type PlanRequest struct {
	Goal          string `json:"goal"`
	Level         string `json:"level"`
	MinutesPerDay int    `json:"minutesPerDay"`
}

type Handler struct {
	client         *Client
	metricsManager *metrics.Manager
	pickFallback   func(n int) int
}

func NewHandler(client *Client, metricsManager *metrics.Manager, pickFallback func(n int) int) *Handler {
	return &Handler{
		client:         client,
		metricsManager: metricsManager,
		pickFallback:   pickFallback,
	}
}

// SetupRoutes registers the coach endpoints on a /coach subrouter; the AI
// backend costs money per call, so the whole subrouter is rate limited.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	coachRateLimitAllowedPerMin int,
) {
	coachSubrouter := mainRouter.PathPrefix("/coach").Subrouter()
	coachSubrouter.HandleFunc("/message", handler.HandleMessage).Methods("POST", "OPTIONS").Name("coach-message")
	coachSubrouter.HandleFunc("/plan", handler.HandlePlan).Methods("POST", "OPTIONS").Name("coach-plan")

	if rateLimiter != nil {
		coachSubrouter.Use(middleware.RateLimit(rateLimiter, "coach", coachRateLimitAllowedPerMin, handler.metricsManager))
	}
}

func (handler *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.message")
	defer span.End()

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("coach message, unmarshal json params: %s", err)
		http.Error(w, "coach message failed", http.StatusBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		http.Error(w, "error, empty conversation", http.StatusBadRequest)
		return
	}

	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	resp := MessageResponse{ConversationID: req.ConversationID}
	reply, err := handler.client.SendMessage(ctx, req.Messages)
	if err != nil {
		log.Errorf("coach message, falling back to canned reply: %s", err)
		handler.metricsManager.CounterCoachFallbacks.Inc()
		resp.Reply = fallbackReplies[handler.pickFallback(len(fallbackReplies))]
		resp.Fallback = true
	} else {
		resp.Reply = reply
	}

	writeJSON(w, resp)
}

func (handler *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.plan")
	defer span.End()

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("coach plan, unmarshal json params: %s", err)
		http.Error(w, "coach plan failed", http.StatusBadRequest)
		return
	}
	if req.MinutesPerDay < 0 {
		http.Error(w, "error, negative minutes", http.StatusBadRequest)
		return
	}

	plan, err := handler.client.GenerateWorkoutPlan(ctx, req.Goal, req.Level, req.MinutesPerDay)
	if err != nil {
		log.Errorf("coach plan, falling back to static plan: %s", err)
		handler.metricsManager.CounterCoachFallbacks.Inc()
		plan = fallbackPlan
		plan.Goal = req.Goal
		plan.Level = req.Level
		plan.MinutesPerDay = req.MinutesPerDay
	}

	writeJSON(w, plan)
}

func writeJSON(w http.ResponseWriter, payload any) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("failed to marshal coach response: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payloadJson)
}
