package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/quizmaster/core"
)

var (
	// errors
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrSubjectExists    = errors.New("a subject with this name already exists")
)

type (
	Repository interface {
		CheckSubjectUniqueness(ctx context.Context, name string) error
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		// DeleteSubject removes the subject and all descendant chapters,
		// quizzes, questions and scores in one transaction.
		DeleteSubject(ctx context.Context, id string) error

		CreateChapter(ctx context.Context, chap Chapter) (Chapter, error)
		QueryChapters(ctx context.Context, subjectID string) ([]ChapterInfo, error)
		GetChapter(ctx context.Context, id string) (Chapter, error)
		UpdateChapter(ctx context.Context, chap Chapter) (Chapter, error)
		DeleteChapter(ctx context.Context, id string) error

		CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		QueryQuizDetails(ctx context.Context) ([]QuizDetail, error)
		// QueryAvailableQuizzes lists quizzes whose scheduled date has passed.
		QueryAvailableQuizzes(ctx context.Context, now time.Time) ([]QuizSummary, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		UpdateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
		DeleteQuiz(ctx context.Context, id string) error

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		QueryQuestions(ctx context.Context, quizID string) ([]Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		CheckSubjectUniqueness(name string) error

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error)
		DeleteSubject(ctx context.Context, id string) error

		CreateChapter(ctx context.Context, subjectID string, nc NewChapter) (Chapter, error)
		QueryChapters(ctx context.Context, subjectID string) ([]ChapterInfo, error)
		GetChapter(ctx context.Context, id string) (Chapter, error)
		UpdateChapter(ctx context.Context, id string, uc UpdateChapter) (Chapter, error)
		DeleteChapter(ctx context.Context, id string) error

		CreateQuiz(ctx context.Context, nq NewQuiz) (Quiz, error)
		QueryQuizDetails(ctx context.Context) ([]QuizDetail, error)
		QueryAvailableQuizzes(ctx context.Context) ([]QuizSummary, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		UpdateQuiz(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error)
		DeleteQuiz(ctx context.Context, id string) error

		CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error)
		QueryQuestions(ctx context.Context, quizID string) ([]Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error)
		DeleteQuestion(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) CheckSubjectUniqueness(name string) error {
	if err := svc.repo.CheckSubjectUniqueness(context.Background(), name); err != nil {
		if err == ErrSubjectExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Subjects

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		Name:        ns.Name,
		Description: ns.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *service) QuerySubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	sub.Name = us.Name
	sub.Description = us.Description
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *service) DeleteSubject(ctx context.Context, id string) error {
	if _, err := svc.repo.GetSubject(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteSubject(ctx, id)
}

// Chapters

func (svc *service) CreateChapter(ctx context.Context, subjectID string, nc NewChapter) (Chapter, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return Chapter{}, err
	}
	now := time.Now().UTC()
	chap := Chapter{
		SubjectID:   subjectID,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateChapter(ctx, chap)
}

func (svc *service) QueryChapters(ctx context.Context, subjectID string) ([]ChapterInfo, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryChapters(ctx, subjectID)
}

func (svc *service) GetChapter(ctx context.Context, id string) (Chapter, error) {
	return svc.repo.GetChapter(ctx, id)
}

func (svc *service) UpdateChapter(ctx context.Context, id string, uc UpdateChapter) (Chapter, error) {
	chap, err := svc.repo.GetChapter(ctx, id)
	if err != nil {
		return Chapter{}, err
	}
	chap.Name = uc.Name
	chap.Description = uc.Description
	chap.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateChapter(ctx, chap)
}

func (svc *service) DeleteChapter(ctx context.Context, id string) error {
	if _, err := svc.repo.GetChapter(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteChapter(ctx, id)
}

// Quizzes

func (svc *service) CreateQuiz(ctx context.Context, nq NewQuiz) (Quiz, error) {
	if _, err := svc.repo.GetChapter(ctx, nq.ChapterID); err != nil {
		return Quiz{}, err
	}
	now := time.Now().UTC()
	qz := Quiz{
		ChapterID:       nq.ChapterID,
		DateOfQuiz:      nq.DateOfQuiz.UTC(),
		DurationMinutes: nq.DurationMinutes,
		Remarks:         nq.Remarks,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateQuiz(ctx, qz)
}

func (svc *service) QueryQuizDetails(ctx context.Context) ([]QuizDetail, error) {
	return svc.repo.QueryQuizDetails(ctx)
}

func (svc *service) QueryAvailableQuizzes(ctx context.Context) ([]QuizSummary, error) {
	return svc.repo.QueryAvailableQuizzes(ctx, time.Now().UTC())
}

func (svc *service) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

func (svc *service) UpdateQuiz(ctx context.Context, id string, uq UpdateQuiz) (Quiz, error) {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	qz.DateOfQuiz = uq.DateOfQuiz.UTC()
	qz.DurationMinutes = uq.DurationMinutes
	qz.Remarks = uq.Remarks
	qz.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateQuiz(ctx, qz)
}

func (svc *service) DeleteQuiz(ctx context.Context, id string) error {
	if _, err := svc.repo.GetQuiz(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteQuiz(ctx, id)
}

// Questions

func (svc *service) CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuiz(ctx, nq.QuizID); err != nil {
		return Question{}, err
	}
	now := time.Now().UTC()
	q := Question{
		QuizID:    nq.QuizID,
		Title:     nq.Title,
		Text:      nq.Text,
		Options:   nq.Options,
		Correct:   nq.Correct,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateQuestion(ctx, q)
}

func (svc *service) QueryQuestions(ctx context.Context, quizID string) ([]Question, error) {
	if _, err := svc.repo.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return svc.repo.QueryQuestions(ctx, quizID)
}

func (svc *service) GetQuestion(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

func (svc *service) UpdateQuestion(ctx context.Context, id string, uq UpdateQuestion) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	q.Title = uq.Title
	q.Text = uq.Text
	q.Options = uq.Options
	q.Correct = uq.Correct
	q.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *service) DeleteQuestion(ctx context.Context, id string) error {
	if _, err := svc.repo.GetQuestion(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteQuestion(ctx, id)
}
