package worker

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
	emailsvc "github.com/trezcool/quizmaster/services/email"
	logsvc "github.com/trezcool/quizmaster/services/logger"
	inmemdb "github.com/trezcool/quizmaster/storage/database/inmem"
	testutil "github.com/trezcool/quizmaster/tests"
)

type handlerFixture struct {
	db        *inmemdb.DB
	usrRepo   user.Repository
	quizRepo  quiz.Repository
	scoreRepo score.Repository
	h         *handler
}

func newHandlerFixture() handlerFixture {
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	quizRepo := inmemdb.NewQuizRepository(db)
	scoreRepo := inmemdb.NewScoreRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	quizSvc := quiz.NewService(quizRepo)
	return handlerFixture{
		db:        db,
		usrRepo:   usrRepo,
		quizRepo:  quizRepo,
		scoreRepo: scoreRepo,
		h: &handler{
			logger:   logsvc.NewStdLogger(log.New(os.Stderr, "WORKER-TEST : ", log.LstdFlags)),
			userSvc:  user.NewServiceMock(usrRepo, mailSvc),
			quizSvc:  quizSvc,
			scoreSvc: score.NewService(scoreRepo, quizSvc),
			mailSvc:  mailSvc,
		},
	}
}

func (f handlerFixture) createQuiz(t *testing.T, name string) quiz.Quiz {
	t.Helper()
	sub := testutil.CreateSubject(t, f.quizRepo, name)
	chap := testutil.CreateChapter(t, f.quizRepo, sub.ID, name+" basics")
	qz := testutil.CreateQuiz(t, f.quizRepo, chap.ID)
	testutil.CreateQuestion(t, f.quizRepo, qz.ID, "Q1", 1)
	return qz
}

func Test_handler_handleDailyReminder(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()
	task := asynq.NewTask(TypeDailyReminder, nil)

	defer func() { nowFunc = time.Now }()

	// no open quizzes: nothing goes out
	emailsvc.SentMessages = nil
	if err := f.h.handleDailyReminder(ctx, task); err != nil {
		t.Fatalf("handleDailyReminder() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 0 {
		t.Errorf("len(SentMessages) = %d, want 0", len(emailsvc.SentMessages))
	}

	f.createQuiz(t, "Maths")
	now := time.Now().UTC()
	testutil.CreateUser(t, f.usrRepo, "active", "active@qm.cd", "", user.RoleStudent, now)
	testutil.CreateUser(t, f.usrRepo, "dormant", "dormant@qm.cd", "", user.RoleStudent, now.Add(-48*time.Hour))
	testutil.CreateUser(t, f.usrRepo, "admin", "admin@qm.cd", "", user.RoleAdmin, now.Add(-48*time.Hour))

	// only the dormant student hears about it
	emailsvc.SentMessages = nil
	if err := f.h.handleDailyReminder(ctx, task); err != nil {
		t.Fatalf("handleDailyReminder() failed: %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != "dormant@qm.cd" {
		t.Errorf("To = %v, want dormant@qm.cd", msg.To[0])
	}
	if !strings.Contains(msg.TextContent, "dormant") {
		t.Errorf("text content does not greet the student: %q", msg.TextContent)
	}
}

func Test_handler_handleMonthlyReport(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()
	task := asynq.NewTask(TypeMonthlyReport, nil)

	nowFunc = func() time.Time { return time.Date(2021, time.May, 1, 6, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	qz := f.createQuiz(t, "Maths")
	active := testutil.CreateUser(t, f.usrRepo, "active", "active@qm.cd", "", user.RoleStudent)
	testutil.CreateUser(t, f.usrRepo, "idle", "idle@qm.cd", "", user.RoleStudent)

	// in April: counts; in March: out of the window
	testutil.CreateScore(t, f.scoreRepo, active.ID, qz.ID, 1, 1, time.Date(2021, time.April, 15, 10, 0, 0, 0, time.UTC))
	other := f.createQuiz(t, "Physics")
	testutil.CreateScore(t, f.scoreRepo, active.ID, other.ID, 0, 1, time.Date(2021, time.March, 15, 10, 0, 0, 0, time.UTC))

	emailsvc.SentMessages = nil
	if err := f.h.handleMonthlyReport(ctx, task); err != nil {
		t.Fatalf("handleMonthlyReport() failed: %v", err)
	}

	// the idle student gets no report
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != "active@qm.cd" {
		t.Errorf("To = %v, want active@qm.cd", msg.To[0])
	}
	if want := "Your activity report for April 2021"; msg.Subject != want {
		t.Errorf("Subject = %q, want %q", msg.Subject, want)
	}
	data, ok := msg.TemplateData.(monthlyReportData)
	if !ok {
		t.Fatalf("TemplateData is %T, want monthlyReportData", msg.TemplateData)
	}
	if data.Attempts != 1 || data.AvgPercentage != 100 {
		t.Errorf("report data = %+v, want 1 attempt at 100%%", data)
	}
}

func Test_handler_handleCSVExport(t *testing.T) {
	f := newHandlerFixture()
	ctx := context.Background()

	qz := f.createQuiz(t, "Maths")
	usr := testutil.CreateUser(t, f.usrRepo, "hero", "hero@qm.cd", "", user.RoleStudent)
	testutil.CreateScore(t, f.scoreRepo, usr.ID, qz.ID, 1, 1)

	// unknown user fails the task
	task := asynq.NewTask(TypeCSVExport, map[string]interface{}{"user_id": "nope"})
	if err := f.h.handleCSVExport(ctx, task); err == nil {
		t.Error("handleCSVExport() error = nil, want error")
	}

	emailsvc.SentMessages = nil
	task = asynq.NewTask(TypeCSVExport, map[string]interface{}{"user_id": usr.ID})
	if err := f.h.handleCSVExport(ctx, task); err != nil {
		t.Fatalf("handleCSVExport() failed: %v", err)
	}

	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	msg := emailsvc.SentMessages[0]
	if msg.To[0].Address != "hero@qm.cd" {
		t.Errorf("To = %v, want hero@qm.cd", msg.To[0])
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("len(Attachments) = %d, want 1", len(msg.Attachments))
	}
	at := msg.Attachments[0]
	if !strings.HasPrefix(at.Filename, "quiz_scores_") || !strings.HasSuffix(at.Filename, ".csv") {
		t.Errorf("Filename = %q, want quiz_scores_YYYYMMDD.csv", at.Filename)
	}
	if at.ContentType != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", at.ContentType)
	}
}
