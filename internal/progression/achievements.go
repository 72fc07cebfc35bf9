package progression

import (
	"context"
	"sort"
	"time"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/multierr"
)

// achievementCatalog is the fixed, versioned set of achievement
// definitions. Live current/unlocked state is persisted separately.
var achievementCatalog = []Achievement{
	{
		ID:          "first-workout",
		Title:       "First Steps",
		Description: "Complete your first workout",
		Category:    "workouts",
		Requirement: 1,
		Rarity:      RarityCommon,
		Experience:  50,
	},
	{
		ID:          "week-warrior",
		Title:       "Week Warrior",
		Description: "Complete 5 workouts in a week",
		Category:    "workouts",
		Requirement: 5,
		Rarity:      RarityRare,
		Experience:  150,
	},
	{
		ID:          "calorie-crusher",
		Title:       "Calorie Crusher",
		Description: "Burn 5000 calories in total",
		Category:    "calories",
		Requirement: 5000,
		Rarity:      RarityRare,
		Experience:  200,
	},
	{
		ID:          "streak-master",
		Title:       "Streak Master",
		Description: "Keep a 7 day workout streak",
		Category:    "streak",
		Requirement: 7,
		Rarity:      RarityEpic,
		Experience:  300,
	},
	{
		ID:          "century-club",
		Title:       "Century Club",
		Description: "Complete 100 workouts",
		Category:    "workouts",
		Requirement: 100,
		Rarity:      RarityLegendary,
		Experience:  500,
	},
	{
		ID:          "time-master",
		Title:       "Time Master",
		Description: "Work out for 1000 minutes in total",
		Category:    "minutes",
		Requirement: 1000,
		Rarity:      RarityEpic,
		Experience:  250,
	},
	{
		ID:          "level-up",
		Title:       "Level Up",
		Description: "Reach level 5",
		Category:    "level",
		Requirement: 5,
		Rarity:      RarityRare,
		Experience:  200,
	},
}

// statValueFor maps an achievement id to the stats field it measures.
func statValueFor(achievementID string, stats UserStats) int {
	switch achievementID {
	case "first-workout", "century-club":
		return stats.TotalWorkouts
	case "week-warrior":
		return stats.WeeklyWorkouts
	case "calorie-crusher":
		return stats.TotalCalories
	case "streak-master":
		return stats.CurrentStreak
	case "time-master":
		return stats.TotalMinutes
	case "level-up":
		return stats.Level
	default:
		return 0
	}
}

// Evaluator scans the achievement catalog against current stats and
// unlocks newly satisfied entries. Unlocking is one-way and grants the
// entry's experience reward exactly once.
type Evaluator struct {
	store kvstore.Store
	now   func() time.Time
}

func NewEvaluator(store kvstore.Store, now func() time.Time) *Evaluator {
	return &Evaluator{
		store: store,
		now:   now,
	}
}

// Catalog returns the persisted achievement list with live state, seeding
// it from the fixed definitions on first access (or after a failed read).
func (e *Evaluator) Catalog(ctx context.Context) []Achievement {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.achievements.catalog")
	defer span.End()

	var achievements []Achievement
	found, err := kvstore.GetJSON(ctx, e.store, keyAchievements, &achievements)
	if err != nil {
		log.Errorf("load achievements, using fresh catalog: %s", err)
		found = false
	}
	if !found || len(achievements) == 0 {
		achievements = make([]Achievement, len(achievementCatalog))
		copy(achievements, achievementCatalog)
	}
	return achievements
}

// Evaluate recomputes every locked entry's progress from stats and unlocks
// those whose requirement is met. When anything unlocked, the catalog and
// the stats (with accumulated rewards) are persisted, in that order, and
// the updated stats are returned alongside the newly unlocked entries.
// Re-evaluating with unchanged stats unlocks nothing.
func (e *Evaluator) Evaluate(ctx context.Context, stats UserStats) ([]Achievement, UserStats) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.achievements.evaluate")
	defer span.End()

	achievements := e.Catalog(ctx)
	now := e.now()

	var newlyUnlocked []Achievement
	for i := range achievements {
		if achievements[i].Unlocked {
			continue
		}

		achievements[i].Current = statValueFor(achievements[i].ID, stats)
		if achievements[i].Current < achievements[i].Requirement {
			continue
		}

		achievements[i].Current = achievements[i].Requirement
		achievements[i].Unlocked = true
		unlockedAt := now
		achievements[i].UnlockedAt = &unlockedAt

		stats.Experience += achievements[i].Experience
		stats.Achievements++
		newlyUnlocked = append(newlyUnlocked, achievements[i])

		log.Debugf("achievement unlocked: %s", achievements[i].Title)
	}

	span.SetAttributes(attribute.Int("newly.unlocked", len(newlyUnlocked)))

	if len(newlyUnlocked) == 0 {
		return nil, stats
	}

	stats.Level = levelForExperience(stats.Experience)

	err := multierr.Combine(
		kvstore.SetJSON(ctx, e.store, keyAchievements, achievements),
		kvstore.SetJSON(ctx, e.store, keyUserStats, stats),
	)
	if err != nil {
		log.Errorf("persist achievement unlock: %s", err)
	}

	return newlyUnlocked, stats
}

// RecentUnlocked returns unlocked achievements, most recent first,
// truncated to limit.
func (e *Evaluator) RecentUnlocked(ctx context.Context, limit int) []Achievement {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.achievements.recent")
	defer span.End()

	var unlocked []Achievement
	for _, achievement := range e.Catalog(ctx) {
		if achievement.Unlocked {
			unlocked = append(unlocked, achievement)
		}
	}

	sort.Slice(unlocked, func(i, j int) bool {
		return unlocked[i].UnlockedAt.After(*unlocked[j].UnlockedAt)
	})

	if limit > 0 && len(unlocked) > limit {
		unlocked = unlocked[:limit]
	}
	if unlocked == nil {
		unlocked = make([]Achievement, 0)
	}
	return unlocked
}
