package progression

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// historyCap bounds the persisted log; oldest entries are evicted.
const historyCap = 100

// HistoryLog is the append-only (capped) log of completed workouts,
// newest first.
type HistoryLog struct {
	store kvstore.Store
	now   func() time.Time
}

func NewHistoryLog(store kvstore.Store, now func() time.Time) *HistoryLog {
	return &HistoryLog{
		store: store,
		now:   now,
	}
}

func (h *HistoryLog) load(ctx context.Context) []WorkoutRecord {
	var records []WorkoutRecord
	found, err := kvstore.GetJSON(ctx, h.store, keyWorkoutHistory, &records)
	if err != nil {
		log.Errorf("load workout history, using empty log: %s", err)
		return nil
	}
	if !found {
		return nil
	}
	return records
}

// Append stamps the record with an id and completion time, parses its
// duration into minutes, and prepends it to the capped log.
func (h *HistoryLog) Append(ctx context.Context, record WorkoutRecord) WorkoutRecord {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.history.append")
	defer span.End()
	span.SetAttributes(attribute.String("video.id", record.VideoID))

	now := h.now()
	record.ID = now.UnixNano()
	record.CompletedAt = now
	record.Minutes = parseDurationMinutes(record.Duration)

	records := append([]WorkoutRecord{record}, h.load(ctx)...)
	if len(records) > historyCap {
		records = records[:historyCap]
	}

	if err := kvstore.SetJSON(ctx, h.store, keyWorkoutHistory, records); err != nil {
		log.Errorf("save workout history: %s", err)
	}

	return record
}

// All returns the capped log, newest first.
func (h *HistoryLog) All(ctx context.Context) []WorkoutRecord {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.history.all")
	defer span.End()

	records := h.load(ctx)
	if records == nil {
		records = make([]WorkoutRecord, 0)
	}
	return records
}

// CountsSince counts history entries completed after each of the two cutoff
// times, in a single pass. Used for the weekly/monthly stats derivation.
func (h *HistoryLog) CountsSince(ctx context.Context, weekCutoff, monthCutoff time.Time) (weekly, monthly int) {
	for _, record := range h.load(ctx) {
		if record.CompletedAt.After(weekCutoff) {
			weekly++
		}
		if record.CompletedAt.After(monthCutoff) {
			monthly++
		}
	}
	return weekly, monthly
}

// WeeklyProgress buckets the trailing-7-day history by weekday name,
// summing workouts, calories and minutes per bucket.
func (h *HistoryLog) WeeklyProgress(ctx context.Context) []DayProgress {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.history.weeklyProgress")
	defer span.End()

	weekCutoff := h.now().AddDate(0, 0, -7)

	byDay := make(map[string]*DayProgress)
	for _, record := range h.load(ctx) {
		if !record.CompletedAt.After(weekCutoff) {
			continue
		}
		day := record.CompletedAt.Weekday().String()
		bucket, ok := byDay[day]
		if !ok {
			bucket = &DayProgress{Day: day}
			byDay[day] = bucket
		}
		bucket.Workouts++
		bucket.Calories += record.Calories
		bucket.Minutes += record.Minutes
	}

	// stable Monday-first ordering for the chart
	progress := make([]DayProgress, 0, len(byDay))
	for _, day := range []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	} {
		if bucket, ok := byDay[day.String()]; ok {
			progress = append(progress, *bucket)
		}
	}
	return progress
}

// parseDurationMinutes converts a display duration ("M:SS" or "H:MM:SS")
// into whole minutes. Malformed input yields 0, by policy.
func parseDurationMinutes(duration string) int {
	parts := strings.Split(duration, ":")
	switch len(parts) {
	case 2:
		minutes, err := strconv.Atoi(parts[0])
		if err != nil || minutes < 0 {
			return 0
		}
		return minutes
	case 3:
		hours, err := strconv.Atoi(parts[0])
		if err != nil || hours < 0 {
			return 0
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil || minutes < 0 {
			return 0
		}
		return hours*60 + minutes
	default:
		return 0
	}
}
