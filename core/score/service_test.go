package score_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	inmemdb "github.com/trezcool/quizmaster/storage/database/inmem"
)

type fixture struct {
	db       *inmemdb.DB
	quizRepo quiz.Repository
	repo     score.Repository
	quizSvc  quiz.ServiceInterface
	svc      score.ServiceInterface
}

func setup() fixture {
	db := inmemdb.NewDB()
	quizRepo := inmemdb.NewQuizRepository(db)
	repo := inmemdb.NewScoreRepository(db)
	quizSvc := quiz.NewService(quizRepo)
	return fixture{
		db:       db,
		quizRepo: quizRepo,
		repo:     repo,
		quizSvc:  quizSvc,
		svc:      score.NewService(repo, quizSvc),
	}
}

func (f fixture) createQuiz(t *testing.T, correctOptions ...int) quiz.Quiz {
	t.Helper()
	ctx := context.Background()

	sub, err := f.quizRepo.CreateSubject(ctx, quiz.Subject{Name: "Maths " + time.Now().String()})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	chap, err := f.quizRepo.CreateChapter(ctx, quiz.Chapter{SubjectID: sub.ID, Name: "Algebra"})
	if err != nil {
		t.Fatalf("CreateChapter() failed: %v", err)
	}
	qz, err := f.quizRepo.CreateQuiz(ctx, quiz.Quiz{ChapterID: chap.ID, DateOfQuiz: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	for _, correct := range correctOptions {
		if _, err := f.quizRepo.CreateQuestion(ctx, quiz.Question{
			QuizID:  qz.ID,
			Title:   "Q",
			Text:    "Q?",
			Options: []string{"A", "B", "C", "D"},
			Correct: correct,
		}); err != nil {
			t.Fatalf("CreateQuestion() failed: %v", err)
		}
	}
	return qz
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name   string
		scored int
		total  int
		want   float64
	}{
		{name: "empty quiz", scored: 0, total: 0, want: 0},
		{name: "zero scored", scored: 0, total: 4, want: 0},
		{name: "half", scored: 1, total: 2, want: 50},
		{name: "all", scored: 4, total: 4, want: 100},
		{name: "two decimals", scored: 1, total: 3, want: 33.33},
		{name: "rounds up", scored: 2, total: 3, want: 66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := score.Percentage(tt.scored, tt.total); got != tt.want {
				t.Errorf("Percentage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_service_Submit(t *testing.T) {
	f := setup()
	ctx := context.Background()
	qz := f.createQuiz(t, 1, 2)

	questions, err := f.quizSvc.QueryQuestions(ctx, qz.ID)
	if err != nil {
		t.Fatalf("QueryQuestions() failed: %v", err)
	}

	// one right, one wrong
	answers := score.AnswerSheet{
		questions[0].ID: questions[0].Correct,
		questions[1].ID: questions[1].Correct%4 + 1,
	}
	res, err := f.svc.Submit(ctx, "usr1", qz.ID, answers)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	want := score.Result{Score: 1, Total: 2, Percentage: 50}
	if res != want {
		t.Errorf("Submit() = %+v, want %+v", res, want)
	}

	// resubmission is rejected
	if _, err := f.svc.Submit(ctx, "usr1", qz.ID, answers); err != score.ErrAlreadySubmitted {
		t.Errorf("Submit() error = %v, want %v", err, score.ErrAlreadySubmitted)
	}

	// another user may still submit
	if _, err := f.svc.Submit(ctx, "usr2", qz.ID, nil); err != nil {
		t.Errorf("Submit() failed: %v", err)
	}
}

func Test_service_Submit_concurrentDuplicates(t *testing.T) {
	f := setup()
	ctx := context.Background()
	qz := f.createQuiz(t, 1, 2)

	// same (user, quiz) pair from many goroutines: exactly one submission
	// may win, the rest get ErrAlreadySubmitted
	const n = 20
	errc := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Submit(ctx, "usr1", qz.ID, nil)
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)

	var won, rejected int
	for err := range errc {
		switch err {
		case nil:
			won++
		case score.ErrAlreadySubmitted:
			rejected++
		default:
			t.Errorf("Submit() error = %v, want %v", err, score.ErrAlreadySubmitted)
		}
	}
	if won != 1 || rejected != n-1 {
		t.Errorf("Submit() x%d: %d succeeded / %d rejected, want 1 / %d", n, won, rejected, n-1)
	}

	scores, err := f.svc.UserScores(ctx, "usr1")
	if err != nil {
		t.Fatalf("UserScores() failed: %v", err)
	}
	if len(scores) != 1 {
		t.Errorf("UserScores() returned %d scores, want 1", len(scores))
	}
}

func Test_service_Submit_unansweredCountIncorrect(t *testing.T) {
	f := setup()
	qz := f.createQuiz(t, 1, 2, 3)

	res, err := f.svc.Submit(context.Background(), "usr1", qz.ID, score.AnswerSheet{})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	want := score.Result{Score: 0, Total: 3, Percentage: 0}
	if res != want {
		t.Errorf("Submit() = %+v, want %+v", res, want)
	}
}

func Test_service_Submit_emptyQuiz(t *testing.T) {
	f := setup()
	qz := f.createQuiz(t)

	_, err := f.svc.Submit(context.Background(), "usr1", qz.ID, nil)
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Submit() error = %v, want *core.ValidationError", err)
	}
	if vErr.Error() != score.ErrEmptyQuiz.Error() {
		t.Errorf("Submit() error = %v, want %v", vErr, score.ErrEmptyQuiz)
	}
}

func Test_service_Submit_quizNotFound(t *testing.T) {
	f := setup()

	if _, err := f.svc.Submit(context.Background(), "usr1", "nope", nil); err != quiz.ErrQuizNotFound {
		t.Errorf("Submit() error = %v, want %v", err, quiz.ErrQuizNotFound)
	}
}

func Test_service_StartQuiz_hidesAnswers(t *testing.T) {
	f := setup()
	qz := f.createQuiz(t, 3, 4)

	public, err := f.svc.StartQuiz(context.Background(), qz.ID)
	if err != nil {
		t.Fatalf("StartQuiz() failed: %v", err)
	}
	if len(public) != 2 {
		t.Fatalf("StartQuiz() returned %d questions, want 2", len(public))
	}
	for _, q := range public {
		if len(q.Options) != quiz.OptionCount {
			t.Errorf("StartQuiz() question has %d options, want %d", len(q.Options), quiz.OptionCount)
		}
	}
}

func Test_service_Result_scopedToOwner(t *testing.T) {
	f := setup()
	ctx := context.Background()
	qz := f.createQuiz(t, 1)

	res, err := f.repo.CreateScore(ctx, score.Score{UserID: "usr1", QuizID: qz.ID, TotalScored: 1, TotalQuestions: 1, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateScore() failed: %v", err)
	}

	if _, err := f.svc.Result(ctx, "usr1", res.ID); err != nil {
		t.Errorf("Result() failed: %v", err)
	}
	if _, err := f.svc.Result(ctx, "usr2", res.ID); err != score.ErrNotFound {
		t.Errorf("Result() error = %v, want %v", err, score.ErrNotFound)
	}
	if _, err := f.svc.Result(ctx, "usr1", "nope"); err != score.ErrNotFound {
		t.Errorf("Result() error = %v, want %v", err, score.ErrNotFound)
	}
}

func Test_service_Performance(t *testing.T) {
	f := setup()
	ctx := context.Background()

	// no scores: all zeroes
	perf, err := f.svc.Performance(ctx, "usr1")
	if err != nil {
		t.Fatalf("Performance() failed: %v", err)
	}
	if perf.Attempts != 0 || perf.AvgPercentage != 0 || perf.BestPercentage != 0 {
		t.Errorf("Performance() = %+v, want zero values", perf)
	}
	if perf.Recent == nil {
		t.Error("Performance() Recent is nil, want empty slice")
	}

	now := time.Now().UTC()
	for i, scored := range []int{1, 2, 3, 4, 4, 2, 0} {
		qz := f.createQuiz(t, 1, 2, 3, 4)
		if _, err := f.repo.CreateScore(ctx, score.Score{
			UserID:         "usr1",
			QuizID:         qz.ID,
			TotalScored:    scored,
			TotalQuestions: 4,
			CreatedAt:      now.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("CreateScore() failed: %v", err)
		}
	}

	perf, err = f.svc.Performance(ctx, "usr1")
	if err != nil {
		t.Fatalf("Performance() failed: %v", err)
	}
	if perf.Attempts != 7 {
		t.Errorf("Attempts = %d, want 7", perf.Attempts)
	}
	if perf.BestPercentage != 100 {
		t.Errorf("BestPercentage = %v, want 100", perf.BestPercentage)
	}
	// (25+50+75+100+100+50+0)/7 = 57.142... -> 57.1
	if perf.AvgPercentage != 57.1 {
		t.Errorf("AvgPercentage = %v, want 57.1", perf.AvgPercentage)
	}
	if len(perf.Recent) != 5 {
		t.Errorf("len(Recent) = %d, want 5", len(perf.Recent))
	}
	// most recent first
	if perf.Recent[0].TotalScored != 0 {
		t.Errorf("Recent[0].TotalScored = %d, want 0", perf.Recent[0].TotalScored)
	}
}

func Test_service_MonthScores(t *testing.T) {
	f := setup()
	ctx := context.Background()
	qz1 := f.createQuiz(t, 1)
	qz2 := f.createQuiz(t, 1)
	qz3 := f.createQuiz(t, 1)

	since := time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	mustCreate := func(quizID string, at time.Time) {
		if _, err := f.repo.CreateScore(ctx, score.Score{UserID: "usr1", QuizID: quizID, TotalScored: 1, TotalQuestions: 1, CreatedAt: at}); err != nil {
			t.Fatalf("CreateScore() failed: %v", err)
		}
	}
	mustCreate(qz1.ID, since.Add(-time.Second))   // before window
	mustCreate(qz2.ID, since)                     // inclusive start
	mustCreate(qz3.ID, until)                     // exclusive end

	scores, err := f.svc.MonthScores(ctx, "usr1", since, until)
	if err != nil {
		t.Fatalf("MonthScores() failed: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("MonthScores() returned %d scores, want 1", len(scores))
	}
	if scores[0].QuizID != qz2.ID {
		t.Errorf("MonthScores()[0].QuizID = %s, want %s", scores[0].QuizID, qz2.ID)
	}
}

func Test_service_DashboardStats(t *testing.T) {
	f := setup()
	ctx := context.Background()

	// empty scope: zero defaults, non-nil slices
	stats, err := f.svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats() failed: %v", err)
	}
	if stats.Overview.AvgScore != 0 || stats.Overview.AvgPercentage != 0 {
		t.Errorf("DashboardStats() overview = %+v, want zero averages", stats.Overview)
	}
	if stats.Subjects == nil || stats.RecentActivity == nil {
		t.Error("DashboardStats() slices are nil, want empty slices")
	}

	qz := f.createQuiz(t, 1, 2, 3)
	for i, scored := range []int{1, 2} {
		usr := "usr" + string(rune('1'+i))
		if _, err := f.repo.CreateScore(ctx, score.Score{UserID: usr, QuizID: qz.ID, TotalScored: scored, TotalQuestions: 3, CreatedAt: time.Now().UTC()}); err != nil {
			t.Fatalf("CreateScore() failed: %v", err)
		}
	}

	stats, err = f.svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats() failed: %v", err)
	}
	if stats.Overview.Quizzes != 1 || stats.Overview.Questions != 3 {
		t.Errorf("DashboardStats() overview = %+v, want 1 quiz / 3 questions", stats.Overview)
	}
	if stats.Overview.AvgScore != 1.5 {
		t.Errorf("AvgScore = %v, want 1.5", stats.Overview.AvgScore)
	}
	// (33.33+66.67)/2 = 50.0
	if stats.Overview.AvgPercentage != 50 {
		t.Errorf("AvgPercentage = %v, want 50", stats.Overview.AvgPercentage)
	}
	if len(stats.RecentActivity) != 2 {
		t.Errorf("len(RecentActivity) = %d, want 2", len(stats.RecentActivity))
	}
}
