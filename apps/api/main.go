package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/trezcool/quizmaster/apps/api/echo"
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
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}
	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

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

	// set up background job client
	jobClient := worker.NewClient(conf)
	defer jobClient.Close()

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		conf.Server.Addr,
		shutdown,
		&echoapi.Deps{
			Logger:    logger,
			UserSvc:   usrSvc,
			QuizSvc:   quizSvc,
			ScoreSvc:  scoreSvc,
			Scheduler: jobClient,
		},
	)
	go server.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
