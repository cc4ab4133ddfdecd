package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

type adminApi struct {
	userSvc  user.ServiceInterface
	quizSvc  quiz.ServiceInterface
	scoreSvc score.ServiceInterface
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := adminApi{
		userSvc:  deps.UserSvc,
		quizSvc:  deps.QuizSvc,
		scoreSvc: deps.ScoreSvc,
	}

	ag := g.Group("/admin", jwt, roleMiddleware(user.RoleAdmin))

	ag.GET("/subjects", api.querySubjects)
	ag.POST("/subjects", api.createSubject)
	ag.GET("/subjects/:id", api.retrieveSubject)
	ag.PUT("/subjects/:id", api.updateSubject)
	ag.DELETE("/subjects/:id", api.destroySubject)
	ag.GET("/subjects/:id/chapters", api.queryChapters)
	ag.POST("/subjects/:id/chapters", api.createChapter)

	ag.GET("/chapters/:id", api.retrieveChapter)
	ag.PUT("/chapters/:id", api.updateChapter)
	ag.DELETE("/chapters/:id", api.destroyChapter)

	ag.GET("/quizzes", api.queryQuizzes)
	ag.POST("/quizzes", api.createQuiz)
	ag.GET("/quizzes/:id", api.retrieveQuiz)
	ag.PUT("/quizzes/:id", api.updateQuiz)
	ag.DELETE("/quizzes/:id", api.destroyQuiz)
	ag.GET("/quizzes/:id/questions", api.queryQuestions)

	ag.POST("/questions", api.createQuestion)
	ag.GET("/questions/:id", api.retrieveQuestion)
	ag.PUT("/questions/:id", api.updateQuestion)
	ag.DELETE("/questions/:id", api.destroyQuestion)

	ag.GET("/students", api.queryStudents)
	ag.GET("/students/:id/scores", api.queryStudentScores)
	ag.GET("/dashboard-stats", api.dashboardStats)
}

// Subjects

func (api *adminApi) querySubjects(ctx echo.Context) error {
	subs, err := api.quizSvc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subs == nil {
		subs = []quiz.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *adminApi) createSubject(ctx echo.Context) error {
	var data quiz.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.quizSvc); err != nil {
		return err
	}

	sub, err := api.quizSvc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *adminApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.quizSvc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) updateSubject(ctx echo.Context) error {
	sub, err := api.quizSvc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data quiz.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err := data.Validate(sub, api.quizSvc); err != nil {
		return err
	}

	sub, err = api.quizSvc.UpdateSubject(ctx.Request().Context(), sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) destroySubject(ctx echo.Context) error {
	if err := api.quizSvc.DeleteSubject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Chapters

func (api *adminApi) queryChapters(ctx echo.Context) error {
	chaps, err := api.quizSvc.QueryChapters(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if chaps == nil {
		chaps = []quiz.ChapterInfo{}
	}
	return ctx.JSON(http.StatusOK, chaps)
}

func (api *adminApi) createChapter(ctx echo.Context) error {
	var data quiz.NewChapter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChapter")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	chap, err := api.quizSvc.CreateChapter(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, chap)
}

func (api *adminApi) retrieveChapter(ctx echo.Context) error {
	chap, err := api.quizSvc.GetChapter(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chap)
}

func (api *adminApi) updateChapter(ctx echo.Context) error {
	chap, err := api.quizSvc.GetChapter(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data quiz.UpdateChapter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChapter")
	}
	if err := data.Validate(chap); err != nil {
		return err
	}

	chap, err = api.quizSvc.UpdateChapter(ctx.Request().Context(), chap.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating chapter")
	}
	return ctx.JSON(http.StatusOK, chap)
}

func (api *adminApi) destroyChapter(ctx echo.Context) error {
	if err := api.quizSvc.DeleteChapter(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Quizzes

func (api *adminApi) queryQuizzes(ctx echo.Context) error {
	details, err := api.quizSvc.QueryQuizDetails(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if details == nil {
		details = []quiz.QuizDetail{}
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *adminApi) createQuiz(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qz, err := api.quizSvc.CreateQuiz(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *adminApi) retrieveQuiz(ctx echo.Context) error {
	qz, err := api.quizSvc.GetQuiz(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *adminApi) updateQuiz(ctx echo.Context) error {
	qz, err := api.quizSvc.GetQuiz(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data quiz.UpdateQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err := data.Validate(qz); err != nil {
		return err
	}

	qz, err = api.quizSvc.UpdateQuiz(ctx.Request().Context(), qz.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *adminApi) destroyQuiz(ctx echo.Context) error {
	if err := api.quizSvc.DeleteQuiz(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Questions

func (api *adminApi) queryQuestions(ctx echo.Context) error {
	questions, err := api.quizSvc.QueryQuestions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if questions == nil {
		questions = []quiz.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *adminApi) createQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	qn, err := api.quizSvc.CreateQuestion(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, qn)
}

func (api *adminApi) retrieveQuestion(ctx echo.Context) error {
	qn, err := api.quizSvc.GetQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *adminApi) updateQuestion(ctx echo.Context) error {
	qn, err := api.quizSvc.GetQuestion(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data quiz.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err := data.Validate(qn); err != nil {
		return err
	}

	qn, err = api.quizSvc.UpdateQuestion(ctx.Request().Context(), qn.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *adminApi) destroyQuestion(ctx echo.Context) error {
	if err := api.quizSvc.DeleteQuestion(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students & stats

func (api *adminApi) queryStudents(ctx echo.Context) error {
	students, err := api.userSvc.QueryStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *adminApi) queryStudentScores(ctx echo.Context) error {
	if _, err := api.userSvc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	scores, err := api.scoreSvc.UserScores(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student scores")
	}
	if scores == nil {
		scores = []score.ScoreInfo{}
	}
	return ctx.JSON(http.StatusOK, scores)
}

func (api *adminApi) dashboardStats(ctx echo.Context) error {
	stats, err := api.scoreSvc.DashboardStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing dashboard stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}
