package score

import (
	"math"
	"time"
)

// Score records one user's outcome on one quiz; at most one exists
// per (user, quiz) pair, enforced by the store.
type Score struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	QuizID         string    `json:"quiz_id"`
	TotalScored    int       `json:"score"`
	TotalQuestions int       `json:"total"`
	CreatedAt      time.Time `json:"timestamp"` // UTC
}

func (s Score) Percentage() float64 {
	return Percentage(s.TotalScored, s.TotalQuestions)
}

// ScoreInfo is a Score read model joined with its quiz's place in the
// content hierarchy.
type ScoreInfo struct {
	Score
	ChapterName string `json:"chapter"`
	SubjectName string `json:"subject"`
}

// AnswerSheet maps a question ID to the selected option (1-based).
// Questions absent from the sheet count as answered incorrectly.
type AnswerSheet map[string]int

// Result is the outcome of a quiz submission.
type Result struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Attempt is a recent-activity entry in dashboards.
type Attempt struct {
	UserID    string    `json:"user_id"`
	QuizID    string    `json:"quiz_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

// Performance summarizes one student's history; all aggregates
// default to 0 when the student has no scores.
type Performance struct {
	Attempts       int         `json:"attempts"`
	AvgPercentage  float64     `json:"avg_percentage"`
	BestPercentage float64     `json:"best_percentage"`
	Recent         []ScoreInfo `json:"recent"`
}

type (
	Overview struct {
		Students      int     `json:"students"`
		Quizzes       int     `json:"quizzes"`
		Questions     int     `json:"questions"`
		AvgScore      float64 `json:"avg_score"`
		AvgPercentage float64 `json:"avg_percentage"`
	}

	SubjectStat struct {
		Name          string  `json:"name"`
		Quizzes       int     `json:"quizzes"`
		AvgPercentage float64 `json:"avg_percentage"`
	}

	// DashboardStats is the admin-wide aggregate view; every number
	// defaults to 0 when there is no underlying data.
	DashboardStats struct {
		Overview       Overview      `json:"overview"`
		Subjects       []SubjectStat `json:"subjects"`
		RecentActivity []Attempt     `json:"recent_activity"`
	}
)

// QueryFilter narrows down score queries; zero values are ignored.
type QueryFilter struct {
	UserID string
	Since  time.Time // inclusive
	Until  time.Time // exclusive
	Limit  int
}

// Percentage computes scored/total as a percentage rounded to 2 decimals,
// defaulting to 0 for an empty quiz.
func Percentage(scored, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(scored)/float64(total)*100*100) / 100
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
