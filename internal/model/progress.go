package model

// ResistanceLevel is one step of the community power ladder.
type ResistanceLevel struct {
	Power  int    `json:"power"`
	Name   string `json:"name"`
	Reward string `json:"reward"`
}

// ResistanceLevels is ordered by ascending power.
var ResistanceLevels = []ResistanceLevel{
	{Power: 10, Name: "Rising Force", Reward: "🌱 Seedling Badge"},
	{Power: 25, Name: "Growing Resistance", Reward: "🌿 Sprout Badge"},
	{Power: 50, Name: "United Front", Reward: "🌳 Tree Badge"},
	{Power: 100, Name: "Powerful Alliance", Reward: "⭐️ Star Badge"},
	{Power: 200, Name: "Unstoppable Movement", Reward: "🌟 Super Star Badge"},
}

// Onboarding goals shown on the progress page.
const (
	ReviewGoal    = 3
	FollowingGoal = 5
	UsefulGoal    = 3
	CommentGoal   = 3
)

// ActivityCounts are the caller's own contribution totals.
type ActivityCounts struct {
	Reviews   int `db:"reviews"`
	Following int `db:"following"`
	Useful    int `db:"useful"`
	Comments  int `db:"comments"`
}

// LeaderboardEntry is a followed user ranked by review count.
type LeaderboardEntry struct {
	ID          int64   `db:"id" json:"id"`
	Name        *string `db:"name" json:"name"`
	Image       *string `db:"image" json:"image"`
	ReviewCount int     `db:"review_count" json:"reviewCount"`
}

// GoalProgress tracks one onboarding goal.
type GoalProgress struct {
	Current int  `json:"current"`
	Target  int  `json:"target"`
	Reached bool `json:"reached"`
}

// ProgressGoals groups the onboarding goals.
type ProgressGoals struct {
	Reviews   GoalProgress `json:"reviews"`
	Following GoalProgress `json:"following"`
	Useful    GoalProgress `json:"useful"`
	Comments  GoalProgress `json:"comments"`
	HasFirst  bool         `json:"hasFirstReview"`
}

// Resistance summarizes the combined review power of the caller and their friends.
type Resistance struct {
	TotalPower         int              `json:"totalPower"`
	CurrentLevel       ResistanceLevel  `json:"currentLevel"`
	NextLevel          *ResistanceLevel `json:"nextLevel"`
	PowerNeededForNext int              `json:"powerNeededForNext"`
}

// ProgressResponse is the body of GET /user/progress.
type ProgressResponse struct {
	Success     bool               `json:"success"`
	Progress    ProgressGoals      `json:"progress"`
	Resistance  Resistance         `json:"resistance"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// NewGoalProgress builds a goal entry.
func NewGoalProgress(current, target int) GoalProgress {
	return GoalProgress{Current: current, Target: target, Reached: current >= target}
}

// ResistanceFor places totalPower on the level ladder. Below the first threshold
// the first level is reported as current, matching the ladder's floor.
func ResistanceFor(totalPower int) Resistance {
	current := ResistanceLevels[0]
	var next *ResistanceLevel

	for i := range ResistanceLevels {
		level := ResistanceLevels[i]
		if totalPower >= level.Power {
			current = level
			continue
		}
		next = &level
		break
	}

	needed := 0
	if next != nil {
		needed = next.Power - totalPower
	}

	return Resistance{
		TotalPower:         totalPower,
		CurrentLevel:       current,
		NextLevel:          next,
		PowerNeededForNext: needed,
	}
}
