package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

type studentApi struct {
	userSvc   user.ServiceInterface
	quizSvc   quiz.ServiceInterface
	scoreSvc  score.ServiceInterface
	scheduler JobScheduler
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := studentApi{
		userSvc:   deps.UserSvc,
		quizSvc:   deps.QuizSvc,
		scoreSvc:  deps.ScoreSvc,
		scheduler: deps.Scheduler,
	}

	sg := g.Group("/student", jwt, roleMiddleware(user.RoleStudent))

	sg.GET("/quizzes/available", api.queryQuizzes)
	sg.GET("/quizzes/:id/start", api.startQuiz)
	sg.POST("/quizzes/:id/submit", api.submitQuiz)

	sg.GET("/results", api.queryResults)
	sg.GET("/results/:id", api.retrieveResult)
	sg.GET("/performance", api.performance)

	sg.GET("/profile", api.retrieveProfile)
	sg.PUT("/profile", api.updateProfile)

	sg.POST("/export", api.exportScores)
}

func (api *studentApi) queryQuizzes(ctx echo.Context) error {
	quizzes, err := api.quizSvc.QueryAvailableQuizzes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying available quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.QuizSummary{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

// startQuiz serves the quiz's questions for taking; the payload never
// contains the correct options.
func (api *studentApi) startQuiz(ctx echo.Context) error {
	questions, err := api.scoreSvc.StartQuiz(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *studentApi) submitQuiz(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data SubmitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}

	res, err := api.scoreSvc.Submit(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Answers)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) queryResults(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	results, err := api.scoreSvc.Results(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []score.ScoreInfo{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *studentApi) retrieveResult(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.scoreSvc.Result(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) performance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	perf, err := api.scoreSvc.Performance(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing performance")
	}
	return ctx.JSON(http.StatusOK, perf)
}

func (api *studentApi) retrieveProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *studentApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(usr, api.userSvc); err != nil {
		return err
	}

	usr, err = api.userSvc.UpdateProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, usr)
}

// exportScores enqueues the CSV export job; the file arrives by email.
func (api *studentApi) exportScores(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	taskID, err := api.scheduler.ScheduleCSVExport(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "scheduling CSV export")
	}
	return ctx.JSON(http.StatusAccepted, ExportResponse{
		TaskID:  taskID,
		Success: "export started; you will receive it by email shortly",
	})
}

type (
	SubmitRequest struct {
		Answers score.AnswerSheet `json:"answers"`
	}

	ExportResponse struct {
		TaskID  string `json:"task_id"`
		Success string `json:"success"`
	}
)
