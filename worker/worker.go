// Package worker runs the background jobs: daily quiz reminders,
// monthly activity reports and on-demand CSV exports. Jobs go through
// Redis; failed tasks retry with exponential backoff and land in the
// archive once retries are exhausted.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

// Task types
const (
	TypeDailyReminder = "report:reminder"
	TypeMonthlyReport = "report:monthly"
	TypeCSVExport     = "export:csv"
)

// Cron entries (UTC)
const (
	dailyReminderSpec = "0 18 * * *"
	monthlyReportSpec = "0 6 1 * *"
)

const maxRetry = 5

// nowFunc is swapped out in tests.
var nowFunc = time.Now

type (
	Deps struct {
		Logger   core.Logger
		UserSvc  user.ServiceInterface
		QuizSvc  quiz.ServiceInterface
		ScoreSvc score.ServiceInterface
		MailSvc  core.EmailService
	}

	Worker struct {
		srv       *asynq.Server
		scheduler *asynq.Scheduler
		mux       *asynq.ServeMux
		logger    core.Logger
	}
)

func redisOpt(conf *core.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	}
}

func NewWorker(conf *core.Config, deps *Deps) *Worker {
	h := &handler{
		logger:   deps.Logger,
		userSvc:  deps.UserSvc,
		quizSvc:  deps.QuizSvc,
		scoreSvc: deps.ScoreSvc,
		mailSvc:  deps.MailSvc,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDailyReminder, h.handleDailyReminder)
	mux.HandleFunc(TypeMonthlyReport, h.handleMonthlyReport)
	mux.HandleFunc(TypeCSVExport, h.handleCSVExport)

	srv := asynq.NewServer(redisOpt(conf), asynq.Config{
		Concurrency: conf.Worker.Concurrency,
		Logger:      asynqLogger{deps.Logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			deps.Logger.Error(fmt.Sprintf("task %s failed", task.Type), err)
		}),
	})

	scheduler := asynq.NewScheduler(redisOpt(conf), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   asynqLogger{deps.Logger},
	})

	return &Worker{
		srv:       srv,
		scheduler: scheduler,
		mux:       mux,
		logger:    deps.Logger,
	}
}

// Start registers the periodic tasks and runs the scheduler and the
// worker pool. It blocks until Stop is called.
func (w *Worker) Start() error {
	taskOpts := []asynq.Option{
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(core.Conf.Worker.TaskTimeout),
	}
	if _, err := w.scheduler.Register(dailyReminderSpec, asynq.NewTask(TypeDailyReminder, nil), taskOpts...); err != nil {
		return errors.Wrap(err, "registering daily reminder")
	}
	if _, err := w.scheduler.Register(monthlyReportSpec, asynq.NewTask(TypeMonthlyReport, nil), taskOpts...); err != nil {
		return errors.Wrap(err, "registering monthly report")
	}

	if err := w.scheduler.Start(); err != nil {
		return errors.Wrap(err, "starting scheduler")
	}
	return errors.Wrap(w.srv.Run(w.mux), "running worker")
}

func (w *Worker) Stop() {
	w.scheduler.Stop()
	w.srv.Stop()
}

type handler struct {
	logger   core.Logger
	userSvc  user.ServiceInterface
	quizSvc  quiz.ServiceInterface
	scoreSvc score.ServiceInterface
	mailSvc  core.EmailService
}

// asynqLogger adapts core.Logger to asynq.Logger.
type asynqLogger struct {
	logger core.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal(fmt.Sprint(args...)) }
