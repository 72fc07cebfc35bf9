package progression

import (
	"context"
	"sync"
	"time"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	workoutBaseXP     = 50
	workoutMinuteXP   = 2
	longStreakBonusXP = 100
	longStreakDays    = 7
	streakBonusPerDay = 10
	challengeRewardXP = 100
)

// StatsManager owns the canonical user stats record and the workout
// completion transaction. A workout completion updates counters and the
// streak, re-derives weekly/monthly counts from history, awards experience,
// then feeds the daily challenge and the achievement evaluator.
type StatsManager struct {
	store        kvstore.Store
	history      *HistoryLog
	challenges   *ChallengeManager
	achievements *Evaluator
	now          func() time.Time

	// serializes workout completions within the process, so that a rapid
	// double tap does not make the second write silently discard the first
	mu sync.Mutex
}

func NewStatsManager(
	store kvstore.Store,
	history *HistoryLog,
	challenges *ChallengeManager,
	achievements *Evaluator,
	now func() time.Time,
) *StatsManager {
	return &StatsManager{
		store:        store,
		history:      history,
		challenges:   challenges,
		achievements: achievements,
		now:          now,
	}
}

// loadStats returns the persisted stats, or fresh defaults when nothing is
// stored. Storage failures also collapse to defaults; the two cases are
// logged apart.
func loadStats(ctx context.Context, store kvstore.Store, now time.Time) UserStats {
	stats := newUserStats(now)
	found, err := kvstore.GetJSON(ctx, store, keyUserStats, &stats)
	if err != nil {
		log.Errorf("load user stats, using defaults: %s", err)
		return newUserStats(now)
	}
	if !found {
		log.Tracef("no user stats stored yet, using defaults")
	}
	return stats
}

// saveStats persists the stats record. Write failures are logged and
// swallowed; the caller keeps its in-memory copy.
func saveStats(ctx context.Context, store kvstore.Store, stats UserStats) {
	if err := kvstore.SetJSON(ctx, store, keyUserStats, stats); err != nil {
		log.Errorf("save user stats: %s", err)
	}
}

func (m *StatsManager) Stats(ctx context.Context) UserStats {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.stats.get")
	defer span.End()

	return loadStats(ctx, m.store, m.now())
}

func (m *StatsManager) SetStats(ctx context.Context, stats UserStats) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.stats.set")
	defer span.End()

	saveStats(ctx, m.store, stats)
}

// RecordWorkout runs the workout completion transaction and returns the
// updated stats together with any achievements it unlocked.
func (m *StatsManager) RecordWorkout(ctx context.Context, calories, minutes int) (UserStats, []Achievement) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.stats.recordWorkout")
	defer span.End()
	span.SetAttributes(
		attribute.Int("calories", calories),
		attribute.Int("minutes", minutes),
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	today := now.Format(dateLayout)
	stats := loadStats(ctx, m.store, now)

	prevStreak := stats.CurrentStreak
	// a gap of exactly one calendar day extends the streak; any other gap,
	// including a second workout on the same day, restarts it at 1
	// (same-day behavior kept as-is from the mobile app, see DESIGN.md)
	if calendarDaysBetween(stats.LastWorkoutDate, today) == 1 {
		stats.CurrentStreak++
	} else {
		stats.CurrentStreak = 1
	}
	if stats.CurrentStreak > stats.BestStreak {
		stats.BestStreak = stats.CurrentStreak
	}

	stats.TotalWorkouts++
	stats.TotalCalories += calories
	stats.TotalMinutes += minutes
	stats.LastWorkoutDate = today

	// weekly/monthly are a pure derivation over the history log, plus one
	// for the in-flight workout (it is appended by the caller separately)
	weekly, monthly := m.history.CountsSince(ctx, now.AddDate(0, 0, -7), now.AddDate(0, 0, -30))
	stats.WeeklyWorkouts = weekly + 1
	stats.MonthlyWorkouts = monthly + 1

	earnedXP := workoutBaseXP + workoutMinuteXP*minutes
	if stats.CurrentStreak >= longStreakDays {
		earnedXP += longStreakBonusXP
	} else {
		earnedXP += streakBonusPerDay * stats.CurrentStreak
	}
	stats.Experience += earnedXP
	stats.Level = levelForExperience(stats.Experience)

	saveStats(ctx, m.store, stats)

	m.challenges.UpdateProgress(ctx, ChallengeWorkouts, 1)
	if calories > 0 {
		m.challenges.UpdateProgress(ctx, ChallengeCalories, calories)
	}
	if minutes > 0 {
		m.challenges.UpdateProgress(ctx, ChallengeMinutes, minutes)
	}
	if stats.CurrentStreak > prevStreak {
		m.challenges.UpdateProgress(ctx, ChallengeStreak, stats.CurrentStreak)
	}

	// a completed challenge may have granted experience meanwhile
	stats = loadStats(ctx, m.store, now)

	unlocked, stats := m.achievements.Evaluate(ctx, stats)

	span.SetAttributes(
		attribute.Int("streak", stats.CurrentStreak),
		attribute.Int("unlocked", len(unlocked)),
	)

	return stats, unlocked
}

// ResetStats overwrites the record with all-zero defaults and a fresh join
// date. The achievements blob is deliberately left untouched.
func (m *StatsManager) ResetStats(ctx context.Context) UserStats {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.stats.reset")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := newUserStats(m.now())
	saveStats(ctx, m.store, stats)
	return stats
}

// calendarDaysBetween returns the number of calendar days from one
// YYYY-MM-DD date to another, or -1 when the first is unset or malformed.
func calendarDaysBetween(from, to string) int {
	if from == "" {
		return -1
	}
	fromDay, err := time.Parse(dateLayout, from)
	if err != nil {
		log.Errorf("parse last workout date [%s]: %s", from, err)
		return -1
	}
	toDay, err := time.Parse(dateLayout, to)
	if err != nil {
		log.Errorf("parse date [%s]: %s", to, err)
		return -1
	}
	return int(toDay.Sub(fromDay).Hours() / 24)
}
