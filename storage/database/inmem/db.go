// Package inmemdb provides mutex-guarded map-backed repositories.
// It mirrors the SQL store's semantics (cascading deletes, the one
// score per (user, quiz) constraint) so services can be tested
// without a database.
package inmemdb

import (
	"sync"

	"github.com/trezcool/quizmaster/core/quiz"
	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users     map[string]*user.User
	subjects  map[string]*quiz.Subject
	chapters  map[string]*quiz.Chapter
	quizzes   map[string]*quiz.Quiz
	questions map[string]*quiz.Question
	scores    map[string]*score.Score
}

func NewDB() *DB {
	return &DB{
		users:     make(map[string]*user.User),
		subjects:  make(map[string]*quiz.Subject),
		chapters:  make(map[string]*quiz.Chapter),
		quizzes:   make(map[string]*quiz.Quiz),
		questions: make(map[string]*quiz.Question),
		scores:    make(map[string]*score.Score),
	}
}

// Reset empties all tables; handy between test cases.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.users = make(map[string]*user.User)
	db.subjects = make(map[string]*quiz.Subject)
	db.chapters = make(map[string]*quiz.Chapter)
	db.quizzes = make(map[string]*quiz.Quiz)
	db.questions = make(map[string]*quiz.Question)
	db.scores = make(map[string]*score.Score)
}
