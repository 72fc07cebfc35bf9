package progression

import "time"

// Storage keys, all living under the kvstore namespace.
const (
	keyUserStats       = "userStats"
	keyWorkoutHistory  = "workoutHistory"
	keyDailyChallenge  = "dailyChallenge"
	keyAchievements    = "achievements"
	keyFavoriteVideos  = "favoriteVideos"
	keyPersonalRecords = "personalRecords"
	keyAppSettings     = "appSettings"
)

// dateLayout is the calendar-day key used for streaks and daily challenges.
const dateLayout = "2006-01-02"

// xpPerLevel: level is always experience/xpPerLevel + 1.
const xpPerLevel = 1000

type UserStats struct {
	TotalWorkouts   int       `json:"totalWorkouts"`
	TotalCalories   int       `json:"totalCalories"`
	TotalMinutes    int       `json:"totalMinutes"`
	CurrentStreak   int       `json:"currentStreak"`
	BestStreak      int       `json:"bestStreak"`
	LastWorkoutDate string    `json:"lastWorkoutDate,omitempty"`
	WeeklyWorkouts  int       `json:"weeklyWorkouts"`
	MonthlyWorkouts int       `json:"monthlyWorkouts"`
	Level           int       `json:"level"`
	Experience      int       `json:"experience"`
	JoinDate        time.Time `json:"joinDate"`
	Achievements    int       `json:"achievements"`
}

func newUserStats(joinedAt time.Time) UserStats {
	return UserStats{
		Level:    1,
		JoinDate: joinedAt,
	}
}

func levelForExperience(experience int) int {
	return experience/xpPerLevel + 1
}

type WorkoutRecord struct {
	ID          int64     `json:"id"`
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Duration    string    `json:"duration"`
	Minutes     int       `json:"minutes"`
	Calories    int       `json:"calories"`
	Category    string    `json:"category"`
	Difficulty  string    `json:"difficulty"`
	CompletedAt time.Time `json:"completedAt"`
}

// DayProgress is one weekday bucket of the weekly progress chart.
type DayProgress struct {
	Day      string `json:"day"`
	Workouts int    `json:"workouts"`
	Calories int    `json:"calories"`
	Minutes  int    `json:"minutes"`
}

type ChallengeType string

const (
	ChallengeWorkouts ChallengeType = "workouts"
	ChallengeCalories ChallengeType = "calories"
	ChallengeMinutes  ChallengeType = "minutes"
	ChallengeStreak   ChallengeType = "streak"
)

type DailyChallenge struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        ChallengeType `json:"type"`
	Target      int           `json:"target"`
	Current     int           `json:"current"`
	Reward      string        `json:"reward"`
	Completed   bool          `json:"completed"`
	Date        string        `json:"date"`
}

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Requirement int        `json:"requirement"`
	Current     int        `json:"current"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
	Rarity      Rarity     `json:"rarity"`
	Experience  int        `json:"experience"`
}

type FavoriteVideo struct {
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title"`
	Thumbnail string    `json:"thumbnail"`
	Duration  string    `json:"duration"`
	Category  string    `json:"category"`
	AddedAt   time.Time `json:"addedAt"`
}

type PersonalRecord struct {
	ExerciseID string    `json:"exerciseId"`
	Exercise   string    `json:"exercise"`
	Value      int       `json:"value"`
	Unit       string    `json:"unit"`
	AchievedAt time.Time `json:"achievedAt"`
}
