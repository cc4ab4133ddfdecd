package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
	emailsvc "github.com/trezcool/quizmaster/services/email"
	logsvc "github.com/trezcool/quizmaster/services/logger"
	"github.com/trezcool/quizmaster/storage/database"
	sqlxrepos "github.com/trezcool/quizmaster/storage/database/sqlx"
	"github.com/trezcool/quizmaster/worker"
)

func main() {
	conf := core.Conf

	// set up logger
	var logger core.Logger
	std := log.New(os.Stdout, "WORKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}
	logger.Info(fmt.Sprintf("Worker initializing : version %q", conf.Build))
	defer logger.Info("Worker stopped")

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	quizSvc := quiz.NewService(sqlxrepos.NewQuizRepository(db))
	scoreSvc := score.NewService(sqlxrepos.NewScoreRepository(db), quizSvc)

	// start worker pool & scheduler
	w := worker.NewWorker(conf, &worker.Deps{
		Logger:   logger,
		UserSvc:  usrSvc,
		QuizSvc:  quizSvc,
		ScoreSvc: scoreSvc,
		MailSvc:  mailSvc,
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		w.Stop()
	}()

	if err := w.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("running worker: %v", err), err)
	}
}
