package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/quizmaster/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db}
}

// Subjects

func (repo *quizRepository) CheckSubjectUniqueness(_ context.Context, name string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.subjects {
		if sub.Name == name {
			return quiz.ErrSubjectExists
		}
	}
	return nil
}

func (repo *quizRepository) CreateSubject(ctx context.Context, sub quiz.Subject) (quiz.Subject, error) {
	if err := repo.CheckSubjectUniqueness(ctx, sub.Name); err != nil {
		return quiz.Subject{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *quizRepository) QuerySubjects(_ context.Context) ([]quiz.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]quiz.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

func (repo *quizRepository) GetSubject(_ context.Context, id string) (quiz.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return quiz.Subject{}, quiz.ErrSubjectNotFound
}

func (repo *quizRepository) UpdateSubject(_ context.Context, sub quiz.Subject) (quiz.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subjects[sub.ID]; !ok {
		return quiz.Subject{}, quiz.ErrSubjectNotFound
	}
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *quizRepository) DeleteSubject(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.subjects, id)
	for chapID, chap := range repo.db.chapters {
		if chap.SubjectID == id {
			repo.deleteChapterCascade(chapID)
		}
	}
	return nil
}

// deleteChapterCascade removes a chapter and everything under it.
// Callers must hold the write lock.
func (repo *quizRepository) deleteChapterCascade(chapID string) {
	delete(repo.db.chapters, chapID)
	for quizID, qz := range repo.db.quizzes {
		if qz.ChapterID == chapID {
			repo.deleteQuizCascade(quizID)
		}
	}
}

// deleteQuizCascade removes a quiz, its questions and its scores.
// Callers must hold the write lock.
func (repo *quizRepository) deleteQuizCascade(quizID string) {
	delete(repo.db.quizzes, quizID)
	for qnID, qn := range repo.db.questions {
		if qn.QuizID == quizID {
			delete(repo.db.questions, qnID)
		}
	}
	for scID, sc := range repo.db.scores {
		if sc.QuizID == quizID {
			delete(repo.db.scores, scID)
		}
	}
}

// Chapters

func (repo *quizRepository) CreateChapter(_ context.Context, chap quiz.Chapter) (quiz.Chapter, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	chap.ID = uuid.New().String()
	repo.db.chapters[chap.ID] = &chap
	return chap, nil
}

func (repo *quizRepository) QueryChapters(_ context.Context, subjectID string) ([]quiz.ChapterInfo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var chaps []quiz.ChapterInfo
	for _, chap := range repo.db.chapters {
		if chap.SubjectID != subjectID {
			continue
		}
		var count int
		for _, qz := range repo.db.quizzes {
			if qz.ChapterID != chap.ID {
				continue
			}
			for _, qn := range repo.db.questions {
				if qn.QuizID == qz.ID {
					count++
				}
			}
		}
		chaps = append(chaps, quiz.ChapterInfo{Chapter: *chap, TotalQuestions: count})
	}
	sort.Slice(chaps, func(i, j int) bool { return chaps[i].Name < chaps[j].Name })
	return chaps, nil
}

func (repo *quizRepository) GetChapter(_ context.Context, id string) (quiz.Chapter, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if chap, ok := repo.db.chapters[id]; ok {
		return *chap, nil
	}
	return quiz.Chapter{}, quiz.ErrChapterNotFound
}

func (repo *quizRepository) UpdateChapter(_ context.Context, chap quiz.Chapter) (quiz.Chapter, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.chapters[chap.ID]; !ok {
		return quiz.Chapter{}, quiz.ErrChapterNotFound
	}
	repo.db.chapters[chap.ID] = &chap
	return chap, nil
}

func (repo *quizRepository) DeleteChapter(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.deleteChapterCascade(id)
	return nil
}

// Quizzes

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	qz.ID = uuid.New().String()
	repo.db.quizzes[qz.ID] = &qz
	return qz, nil
}

// hierarchy resolves a quiz's chapter and subject names.
// Callers must hold at least the read lock.
func (repo *quizRepository) hierarchy(qz quiz.Quiz) (chapName, subID, subName string) {
	if chap, ok := repo.db.chapters[qz.ChapterID]; ok {
		chapName = chap.Name
		if sub, ok := repo.db.subjects[chap.SubjectID]; ok {
			subID, subName = sub.ID, sub.Name
		}
	}
	return
}

func (repo *quizRepository) questions(quizID string) []quiz.Question {
	var questions []quiz.Question
	for _, qn := range repo.db.questions {
		if qn.QuizID == quizID {
			questions = append(questions, *qn)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].CreatedAt.Before(questions[j].CreatedAt) })
	return questions
}

func (repo *quizRepository) QueryQuizDetails(_ context.Context) ([]quiz.QuizDetail, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	details := make([]quiz.QuizDetail, 0, len(repo.db.quizzes))
	for _, qz := range repo.db.quizzes {
		chapName, subID, subName := repo.hierarchy(*qz)
		questions := repo.questions(qz.ID)
		if questions == nil {
			questions = []quiz.Question{}
		}
		details = append(details, quiz.QuizDetail{
			Quiz:        *qz,
			ChapterName: chapName,
			SubjectID:   subID,
			SubjectName: subName,
			Questions:   questions,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].DateOfQuiz.After(details[j].DateOfQuiz) })
	return details, nil
}

func (repo *quizRepository) QueryAvailableQuizzes(_ context.Context, now time.Time) ([]quiz.QuizSummary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var summaries []quiz.QuizSummary
	for _, qz := range repo.db.quizzes {
		if qz.DateOfQuiz.After(now) {
			continue
		}
		chapName, _, subName := repo.hierarchy(*qz)
		summaries = append(summaries, quiz.QuizSummary{
			ID:             qz.ID,
			Chapter:        chapName,
			Subject:        subName,
			DateOfQuiz:     qz.DateOfQuiz,
			Duration:       qz.DurationMinutes,
			TotalQuestions: len(repo.questions(qz.ID)),
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].DateOfQuiz.After(summaries[j].DateOfQuiz) })
	return summaries, nil
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if qz, ok := repo.db.quizzes[id]; ok {
		return *qz, nil
	}
	return quiz.Quiz{}, quiz.ErrQuizNotFound
}

func (repo *quizRepository) UpdateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.quizzes[qz.ID]; !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	repo.db.quizzes[qz.ID] = &qz
	return qz, nil
}

func (repo *quizRepository) DeleteQuiz(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.deleteQuizCascade(id)
	return nil
}

// Questions

func (repo *quizRepository) CreateQuestion(_ context.Context, qn quiz.Question) (quiz.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	qn.ID = uuid.New().String()
	repo.db.questions[qn.ID] = &qn
	return qn, nil
}

func (repo *quizRepository) QueryQuestions(_ context.Context, quizID string) ([]quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.questions(quizID), nil
}

func (repo *quizRepository) GetQuestion(_ context.Context, id string) (quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if qn, ok := repo.db.questions[id]; ok {
		return *qn, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *quizRepository) UpdateQuestion(_ context.Context, qn quiz.Question) (quiz.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.questions[qn.ID]; !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	repo.db.questions[qn.ID] = &qn
	return qn, nil
}

func (repo *quizRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.questions, id)
	return nil
}
