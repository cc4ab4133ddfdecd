package score

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/quiz"
)

var (
	// errors
	ErrNotFound         = errors.New("score not found")
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrEmptyQuiz        = errors.New("this quiz has no questions")
)

type (
	Repository interface {
		// CreateScore inserts a score; a second insert for the same
		// (user, quiz) pair fails with ErrAlreadySubmitted — the store's
		// unique constraint is the source of truth, there is no
		// check-then-insert window.
		CreateScore(ctx context.Context, sc Score) (Score, error)
		GetScore(ctx context.Context, id string) (ScoreInfo, error)
		// QueryScores returns scores matching filter, most recent first.
		QueryScores(ctx context.Context, filter *QueryFilter) ([]ScoreInfo, error)
		// DashboardStats computes the admin-wide aggregates; implementations
		// return zero values (not errors) for empty scopes.
		DashboardStats(ctx context.Context) (DashboardStats, error)
	}

	ServiceInterface interface {
		StartQuiz(ctx context.Context, quizID string) ([]quiz.PublicQuestion, error)
		Submit(ctx context.Context, userID, quizID string, answers AnswerSheet) (Result, error)
		Results(ctx context.Context, userID string) ([]ScoreInfo, error)
		Result(ctx context.Context, userID, scoreID string) (ScoreInfo, error)
		Performance(ctx context.Context, userID string) (Performance, error)
		MonthScores(ctx context.Context, userID string, since, until time.Time) ([]ScoreInfo, error)
		UserScores(ctx context.Context, userID string) ([]ScoreInfo, error)
		DashboardStats(ctx context.Context) (DashboardStats, error)
	}

	service struct {
		repo    Repository
		quizSvc quiz.ServiceInterface
	}
)

var _ ServiceInterface = (*service)(nil)

const recentAttemptsLimit = 5

func NewService(repo Repository, quizSvc quiz.ServiceInterface) *service {
	return &service{
		repo:    repo,
		quizSvc: quizSvc,
	}
}

// StartQuiz returns the quiz's questions in their public projection;
// the correct option never appears in the payload.
func (svc *service) StartQuiz(ctx context.Context, quizID string) ([]quiz.PublicQuestion, error) {
	questions, err := svc.quizSvc.QueryQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	public := make([]quiz.PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, q.Public())
	}
	return public, nil
}

// Submit scores the answer sheet against the quiz's questions and records
// the result. Unanswered questions count as incorrect. Resubmission fails
// with ErrAlreadySubmitted.
func (svc *service) Submit(ctx context.Context, userID, quizID string, answers AnswerSheet) (Result, error) {
	questions, err := svc.quizSvc.QueryQuestions(ctx, quizID)
	if err != nil {
		return Result{}, err
	}
	if len(questions) == 0 {
		return Result{}, core.NewValidationError(ErrEmptyQuiz)
	}

	var correct int
	for _, q := range questions {
		if selected, ok := answers[q.ID]; ok && selected == q.Correct {
			correct++
		}
	}

	sc := Score{
		UserID:         userID,
		QuizID:         quizID,
		TotalScored:    correct,
		TotalQuestions: len(questions),
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := svc.repo.CreateScore(ctx, sc); err != nil {
		return Result{}, err
	}

	return Result{
		Score:      correct,
		Total:      len(questions),
		Percentage: Percentage(correct, len(questions)),
	}, nil
}

func (svc *service) Results(ctx context.Context, userID string) ([]ScoreInfo, error) {
	return svc.repo.QueryScores(ctx, &QueryFilter{UserID: userID})
}

// Result returns one score detail, scoped to its owner.
func (svc *service) Result(ctx context.Context, userID, scoreID string) (ScoreInfo, error) {
	info, err := svc.repo.GetScore(ctx, scoreID)
	if err != nil {
		return ScoreInfo{}, err
	}
	if info.UserID != userID {
		return ScoreInfo{}, ErrNotFound
	}
	return info, nil
}

func (svc *service) Performance(ctx context.Context, userID string) (Performance, error) {
	scores, err := svc.repo.QueryScores(ctx, &QueryFilter{UserID: userID})
	if err != nil {
		return Performance{}, err
	}

	perf := Performance{Recent: []ScoreInfo{}}
	if len(scores) == 0 {
		return perf, nil
	}

	var sum float64
	for _, s := range scores {
		pct := s.Percentage()
		sum += pct
		if pct > perf.BestPercentage {
			perf.BestPercentage = pct
		}
	}
	perf.Attempts = len(scores)
	perf.AvgPercentage = round1(sum / float64(len(scores)))

	if len(scores) > recentAttemptsLimit {
		scores = scores[:recentAttemptsLimit]
	}
	perf.Recent = scores
	return perf, nil
}

func (svc *service) MonthScores(ctx context.Context, userID string, since, until time.Time) ([]ScoreInfo, error) {
	return svc.repo.QueryScores(ctx, &QueryFilter{UserID: userID, Since: since.UTC(), Until: until.UTC()})
}

func (svc *service) UserScores(ctx context.Context, userID string) ([]ScoreInfo, error) {
	return svc.repo.QueryScores(ctx, &QueryFilter{UserID: userID})
}

func (svc *service) DashboardStats(ctx context.Context) (DashboardStats, error) {
	stats, err := svc.repo.DashboardStats(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	stats.Overview.AvgScore = round1(stats.Overview.AvgScore)
	stats.Overview.AvgPercentage = round1(stats.Overview.AvgPercentage)
	for i := range stats.Subjects {
		stats.Subjects[i].AvgPercentage = round1(stats.Subjects[i].AvgPercentage)
	}
	if stats.Subjects == nil {
		stats.Subjects = []SubjectStat{}
	}
	if stats.RecentActivity == nil {
		stats.RecentActivity = []Attempt{}
	}
	return stats, nil
}
