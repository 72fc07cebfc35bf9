package progression

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bkoval/fitpulse/internal/kvstore"
	"github.com/bkoval/fitpulse/internal/telemetry/metrics"
	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// challengeTemplates are the four daily challenge variants; one is picked
// uniformly at random on day rollover.
var challengeTemplates = []DailyChallenge{
	{
		Title:       "Daily Grind",
		Description: "Complete 1 workout today",
		Type:        ChallengeWorkouts,
		Target:      1,
		Reward:      "+100 XP",
	},
	{
		Title:       "Calorie Burner",
		Description: "Burn 300 calories today",
		Type:        ChallengeCalories,
		Target:      300,
		Reward:      "+100 XP",
	},
	{
		Title:       "Time On Feet",
		Description: "Work out for 30 minutes today",
		Type:        ChallengeMinutes,
		Target:      30,
		Reward:      "+100 XP",
	},
	{
		Title:       "Keep The Flame",
		Description: "Reach a 3 day streak",
		Type:        ChallengeStreak,
		Target:      3,
		Reward:      "+100 XP",
	},
}

// ChallengeForDate instantiates the challenge for the given calendar day.
// Pure: the date and the template pick function are both injected.
func ChallengeForDate(date string, pickTemplate func(n int) int) DailyChallenge {
	challenge := challengeTemplates[pickTemplate(len(challengeTemplates))]
	challenge.ID = fmt.Sprintf("challenge-%s", date)
	challenge.Date = date
	return challenge
}

// ChallengeManager keeps one active challenge per calendar day and grants
// the flat experience reward when it completes.
type ChallengeManager struct {
	store          kvstore.Store
	metricsManager *metrics.Manager
	now            func() time.Time
	pickTemplate   func(n int) int
}

func NewChallengeManager(store kvstore.Store, metricsManager *metrics.Manager, now func() time.Time) *ChallengeManager {
	return &ChallengeManager{
		store:          store,
		metricsManager: metricsManager,
		now:            now,
		pickTemplate:   rand.Intn,
	}
}

// Today returns the current day's challenge, lazily generating a new one
// when the stored challenge belongs to a previous day. The prior day's
// instance is simply replaced, not archived.
func (m *ChallengeManager) Today(ctx context.Context) DailyChallenge {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.challenge.today")
	defer span.End()

	today := m.now().Format(dateLayout)

	var challenge DailyChallenge
	found, err := kvstore.GetJSON(ctx, m.store, keyDailyChallenge, &challenge)
	if err != nil {
		log.Errorf("load daily challenge, regenerating: %s", err)
		found = false
	}
	if found && challenge.Date == today {
		return challenge
	}

	challenge = ChallengeForDate(today, m.pickTemplate)
	if err := kvstore.SetJSON(ctx, m.store, keyDailyChallenge, challenge); err != nil {
		log.Errorf("save daily challenge: %s", err)
	}

	span.SetAttributes(attribute.String("challenge.type", string(challenge.Type)))
	log.Debugf("new daily challenge for %s: %s", today, challenge.Title)
	return challenge
}

// UpdateProgress adds amount to today's challenge when the type matches.
// Progress never exceeds the target; reaching it completes the challenge
// and grants the flat experience reward to the user stats. Updates for a
// non-matching type, or after completion, are no-ops.
func (m *ChallengeManager) UpdateProgress(ctx context.Context, challengeType ChallengeType, amount int) DailyChallenge {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progression.challenge.updateProgress")
	defer span.End()
	span.SetAttributes(
		attribute.String("challenge.type", string(challengeType)),
		attribute.Int("amount", amount),
	)

	challenge := m.Today(ctx)
	if challenge.Type != challengeType || challenge.Completed {
		return challenge
	}

	challenge.Current += amount
	if challenge.Current >= challenge.Target {
		challenge.Current = challenge.Target
		challenge.Completed = true
	}

	if err := kvstore.SetJSON(ctx, m.store, keyDailyChallenge, challenge); err != nil {
		log.Errorf("save daily challenge progress: %s", err)
	}

	if challenge.Completed {
		m.grantReward(ctx)
		m.metricsManager.CounterChallengesCompleted.Inc()
		log.Debugf("daily challenge [%s] completed", challenge.Title)
	}

	return challenge
}

func (m *ChallengeManager) grantReward(ctx context.Context) {
	now := m.now()
	stats := loadStats(ctx, m.store, now)
	stats.Experience += challengeRewardXP
	stats.Level = levelForExperience(stats.Experience)
	saveStats(ctx, m.store, stats)
}
