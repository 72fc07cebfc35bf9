package progression

import (
	"context"
	"testing"
	"time"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streakPick always selects the streak template, whose target of 3 days
// keeps the daily challenge out of the way of single-workout scenarios.
func streakPick(_ int) int { return 3 }

type testEngine struct {
	store        *kvstore.TestStore
	history      *HistoryLog
	challenges   *ChallengeManager
	achievements *Evaluator
	stats        *StatsManager
}

func newTestEngine(now func() time.Time) *testEngine {
	store := kvstore.NewTestStore()
	history := NewHistoryLog(store, now)
	challenges := NewChallengeManager(store, metrics.NewTestManager(), now)
	challenges.pickTemplate = streakPick
	achievements := NewEvaluator(store, now)
	return &testEngine{
		store:        store,
		history:      history,
		challenges:   challenges,
		achievements: achievements,
		stats:        NewStatsManager(store, history, challenges, achievements, now),
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStatsManager_Stats_FreshInstall(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	stats := engine.stats.Stats(context.Background())
	assert.Equal(t, 0, stats.TotalWorkouts)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 0, stats.Experience)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, "", stats.LastWorkoutDate)
	assert.Equal(t, now, stats.JoinDate)
}

func TestStatsManager_Stats_StoreFailureCollapsesToDefaults(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))
	engine.store.FailGets = true

	stats := engine.stats.Stats(context.Background())
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 0, stats.TotalWorkouts)
}

func TestStatsManager_RecordWorkout_FirstWorkout(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	stats, unlocked := engine.stats.RecordWorkout(ctx, 300, 45)

	assert.Equal(t, 1, stats.TotalWorkouts)
	assert.Equal(t, 300, stats.TotalCalories)
	assert.Equal(t, 45, stats.TotalMinutes)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 1, stats.BestStreak)
	assert.Equal(t, "2025-03-10", stats.LastWorkoutDate)
	assert.Equal(t, 1, stats.WeeklyWorkouts)
	assert.Equal(t, 1, stats.MonthlyWorkouts)

	// 50 base + 2*45 minutes + 10*1 streak bonus, plus the 50 XP
	// first-workout achievement reward
	assert.Equal(t, 200, stats.Experience)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 1, stats.Achievements)

	require.Len(t, unlocked, 1)
	assert.Equal(t, "first-workout", unlocked[0].ID)
	require.NotNil(t, unlocked[0].UnlockedAt)
	assert.Equal(t, now, *unlocked[0].UnlockedAt)
}

func TestStatsManager_RecordWorkout_StreakContinues(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	engine.stats.SetStats(ctx, UserStats{
		TotalWorkouts:   4,
		CurrentStreak:   3,
		BestStreak:      3,
		LastWorkoutDate: "2025-03-09",
		Level:           1,
	})

	stats, _ := engine.stats.RecordWorkout(ctx, 100, 20)
	assert.Equal(t, 4, stats.CurrentStreak)
	assert.Equal(t, 4, stats.BestStreak)
	assert.Equal(t, 5, stats.TotalWorkouts)
}

func TestStatsManager_RecordWorkout_GapResetsStreak(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	engine.stats.SetStats(ctx, UserStats{
		CurrentStreak:   6,
		BestStreak:      6,
		LastWorkoutDate: "2025-03-07",
		Level:           1,
	})

	stats, _ := engine.stats.RecordWorkout(ctx, 100, 20)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 6, stats.BestStreak)
}

func TestStatsManager_RecordWorkout_SameDayResetsStreak(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	engine.stats.SetStats(ctx, UserStats{
		CurrentStreak:   5,
		BestStreak:      5,
		LastWorkoutDate: "2025-03-10",
		Level:           1,
	})

	// a second workout on the same day restarts the streak at 1
	stats, _ := engine.stats.RecordWorkout(ctx, 100, 20)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 5, stats.BestStreak)
}

func TestStatsManager_RecordWorkout_LongStreakBonus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	// park today's challenge on a type this workout does not touch
	require.NoError(t, kvstore.SetJSON(ctx, engine.store, keyDailyChallenge, DailyChallenge{
		ID:     "challenge-2025-03-10",
		Type:   ChallengeCalories,
		Target: 300,
		Date:   "2025-03-10",
	}))

	engine.stats.SetStats(ctx, UserStats{
		TotalWorkouts:   20,
		CurrentStreak:   6,
		BestStreak:      6,
		LastWorkoutDate: "2025-03-09",
		Experience:      500,
		Level:           1,
	})

	stats, unlocked := engine.stats.RecordWorkout(ctx, 0, 30)
	assert.Equal(t, 7, stats.CurrentStreak)

	// 500 + 50 base + 2*30 minutes + 100 long streak bonus, plus the
	// streak-master (300 XP) and first-workout (50 XP) rewards
	assert.Equal(t, 1060, stats.Experience)
	assert.Equal(t, 2, stats.Level)

	unlockedIDs := make([]string, 0, len(unlocked))
	for _, achievement := range unlocked {
		unlockedIDs = append(unlockedIDs, achievement.ID)
	}
	assert.Contains(t, unlockedIDs, "streak-master")
}

func TestStatsManager_RecordWorkout_LevelNeverDecreases(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	engine.stats.SetStats(ctx, UserStats{
		TotalWorkouts: 10,
		Experience:    2990,
		Level:         3,
	})

	stats, _ := engine.stats.RecordWorkout(ctx, 0, 0)
	// 2990 + 50 base + 10 streak bonus + 50 first-workout reward
	assert.Equal(t, 3100, stats.Experience)
	assert.Equal(t, 4, stats.Level)
}

func TestStatsManager_RecordWorkout_WeeklyDerivedFromHistory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	// two recent entries, one stale
	historyNow := now
	engine.history.now = func() time.Time { return historyNow }
	historyNow = now.AddDate(0, 0, -2)
	engine.history.Append(ctx, WorkoutRecord{Duration: "20:00"})
	historyNow = now.AddDate(0, 0, -1)
	engine.history.Append(ctx, WorkoutRecord{Duration: "20:00"})
	historyNow = now.AddDate(0, 0, -20)
	engine.history.Append(ctx, WorkoutRecord{Duration: "20:00"})

	stats, _ := engine.stats.RecordWorkout(ctx, 100, 20)
	assert.Equal(t, 3, stats.WeeklyWorkouts)
	assert.Equal(t, 4, stats.MonthlyWorkouts)
}

func TestStatsManager_ResetStats_LeavesAchievementsAlone(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	engine := newTestEngine(fixedNow(now))

	_, unlocked := engine.stats.RecordWorkout(ctx, 300, 45)
	require.NotEmpty(t, unlocked)

	resetAt := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	engine.stats.now = fixedNow(resetAt)

	stats := engine.stats.ResetStats(ctx)
	assert.Equal(t, 0, stats.TotalWorkouts)
	assert.Equal(t, 0, stats.Experience)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, resetAt, stats.JoinDate)
	assert.Equal(t, 0, stats.Achievements)

	// the unlocked achievement survives the reset
	catalog := engine.achievements.Catalog(ctx)
	var firstWorkout Achievement
	for _, achievement := range catalog {
		if achievement.ID == "first-workout" {
			firstWorkout = achievement
		}
	}
	assert.True(t, firstWorkout.Unlocked)
}

func TestCalendarDaysBetween(t *testing.T) {
	assert.Equal(t, -1, calendarDaysBetween("", "2025-03-10"))
	assert.Equal(t, -1, calendarDaysBetween("not-a-date", "2025-03-10"))
	assert.Equal(t, 0, calendarDaysBetween("2025-03-10", "2025-03-10"))
	assert.Equal(t, 1, calendarDaysBetween("2025-03-09", "2025-03-10"))
	assert.Equal(t, 3, calendarDaysBetween("2025-03-07", "2025-03-10"))
	// month boundary
	assert.Equal(t, 1, calendarDaysBetween("2025-02-28", "2025-03-01"))
}
