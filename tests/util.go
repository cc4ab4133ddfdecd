package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd, role string,
	lastSeen ...time.Time,
) user.User {
	t.Helper()

	now := time.Now().UTC()
	seen := now
	if len(lastSeen) > 0 {
		seen = lastSeen[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
		LastSeen:  seen,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSubject(t *testing.T, repo quiz.Repository, name string) quiz.Subject {
	t.Helper()

	now := time.Now().UTC()
	sub, err := repo.CreateSubject(context.Background(), quiz.Subject{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateChapter(t *testing.T, repo quiz.Repository, subjectID, name string) quiz.Chapter {
	t.Helper()

	now := time.Now().UTC()
	chap, err := repo.CreateChapter(context.Background(), quiz.Chapter{
		SubjectID: subjectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateChapter() failed: %v", err)
	}
	return chap
}

func CreateQuiz(t *testing.T, repo quiz.Repository, chapterID string, date ...time.Time) quiz.Quiz {
	t.Helper()

	now := time.Now().UTC()
	dateOfQuiz := now
	if len(date) > 0 {
		dateOfQuiz = date[0].UTC()
	}
	qz, err := repo.CreateQuiz(context.Background(), quiz.Quiz{
		ChapterID:       chapterID,
		DateOfQuiz:      dateOfQuiz,
		DurationMinutes: 30,
		Remarks:         null.String{},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return qz
}

func CreateQuestion(t *testing.T, repo quiz.Repository, quizID, title string, correct int) quiz.Question {
	t.Helper()

	now := time.Now().UTC()
	qn, err := repo.CreateQuestion(context.Background(), quiz.Question{
		QuizID:    quizID,
		Title:     title,
		Text:      title + "?",
		Options:   []string{"A", "B", "C", "D"},
		Correct:   correct,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return qn
}

func CreateScore(
	t *testing.T,
	repo score.Repository,
	userID, quizID string,
	scored, total int,
	createdAt ...time.Time,
) score.Score {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	sc, err := repo.CreateScore(context.Background(), score.Score{
		UserID:         userID,
		QuizID:         quizID,
		TotalScored:    scored,
		TotalQuestions: total,
		CreatedAt:      tstamp,
	})
	if err != nil {
		t.Fatalf("CreateScore() failed: %v", err)
	}
	return sc
}
