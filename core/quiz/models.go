package quiz

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizmaster/core"
)

// Subject is the top of the content hierarchy; it exclusively owns
// its Chapters, which own Quizzes, which own Questions.
type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type Chapter struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// ChapterInfo is a Chapter read model carrying the question count
// across all of the chapter's quizzes.
type ChapterInfo struct {
	Chapter
	TotalQuestions int `json:"total_questions"`
}

type Quiz struct {
	ID              string      `json:"id"`
	ChapterID       string      `json:"chapter_id"`
	DateOfQuiz      time.Time   `json:"date"`
	DurationMinutes int         `json:"duration"`
	Remarks         null.String `json:"remarks"`
	CreatedAt       time.Time   `json:"created_at"` // UTC
	UpdatedAt       time.Time   `json:"updated_at"` // UTC
}

// QuizDetail is the admin read model: quiz plus its place in the
// hierarchy and its full questions (correct options included).
type QuizDetail struct {
	Quiz
	ChapterName string     `json:"chapter_name"`
	SubjectID   string     `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	Questions   []Question `json:"questions"`
}

// QuizSummary is the student-facing listing of a quiz open for taking.
type QuizSummary struct {
	ID             string    `json:"id"`
	Chapter        string    `json:"chapter"`
	Subject        string    `json:"subject"`
	DateOfQuiz     time.Time `json:"date"`
	Duration       int       `json:"duration"`
	TotalQuestions int       `json:"total_questions"`
}

const OptionCount = 4

type Question struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quiz_id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Options   []string  `json:"options"` // exactly OptionCount entries
	Correct   int       `json:"correct"` // 1-based index into Options
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// PublicQuestion is the projection served to students taking a quiz.
// It has no correct-option field at all, so the answer cannot leak.
type PublicQuestion struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:      q.ID,
		Title:   q.Title,
		Text:    q.Text,
		Options: q.Options,
	}
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (ns *NewSubject) Validate(svc ServiceInterface) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Description = core.CleanString(ns.Description)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckSubjectUniqueness(ns.Name)
}

// UpdateSubject defines what may be changed on an existing Subject.
// Empty fields keep their current value.
type UpdateSubject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (us *UpdateSubject) Validate(origSub Subject, svc ServiceInterface) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = origSub.Name
	}
	if us.Description == "" {
		us.Description = origSub.Description
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	if us.Name != origSub.Name {
		return svc.CheckSubjectUniqueness(us.Name)
	}
	return nil
}

type NewChapter struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewChapter) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

type UpdateChapter struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (uc *UpdateChapter) Validate(origChap Chapter) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origChap.Name
	}
	if uc.Description == "" {
		uc.Description = origChap.Description
	}
	return core.Validate.Struct(uc)
}

type NewQuiz struct {
	ChapterID       string      `json:"chapter_id" validate:"required"`
	DateOfQuiz      time.Time   `json:"date"`
	DurationMinutes int         `json:"duration" validate:"omitempty,min=1"`
	Remarks         null.String `json:"remarks"`
}

func (nq *NewQuiz) Validate() error {
	if nq.DateOfQuiz.IsZero() {
		nq.DateOfQuiz = time.Now().UTC()
	}
	if nq.DurationMinutes == 0 {
		nq.DurationMinutes = 30
	}
	return core.Validate.Struct(nq)
}

type UpdateQuiz struct {
	DateOfQuiz      time.Time   `json:"date"`
	DurationMinutes int         `json:"duration" validate:"omitempty,min=1"`
	Remarks         null.String `json:"remarks"`
}

func (uq *UpdateQuiz) Validate(origQuiz Quiz) error {
	if uq.DateOfQuiz.IsZero() {
		uq.DateOfQuiz = origQuiz.DateOfQuiz
	}
	if uq.DurationMinutes == 0 {
		uq.DurationMinutes = origQuiz.DurationMinutes
	}
	if !uq.Remarks.Valid {
		uq.Remarks = origQuiz.Remarks
	}
	return core.Validate.Struct(uq)
}

// NewQuestion contains information needed to create a new Question.
// Exactly OptionCount options and an in-range correct index are required,
// on create and update alike.
type NewQuestion struct {
	QuizID  string   `json:"quiz_id" validate:"required"`
	Title   string   `json:"title" validate:"required"`
	Text    string   `json:"text" validate:"required"`
	Options []string `json:"options" validate:"len=4,dive,required"`
	Correct int      `json:"correct" validate:"min=1,max=4"`
}

func (nq *NewQuestion) Validate() error {
	nq.Title = core.CleanString(nq.Title)
	nq.Text = core.CleanString(nq.Text)
	return core.Validate.Struct(nq)
}

type UpdateQuestion struct {
	Title   string   `json:"title"`
	Text    string   `json:"text"`
	Options []string `json:"options" validate:"len=4,dive,required"`
	Correct int      `json:"correct" validate:"min=1,max=4"`
}

func (uq *UpdateQuestion) Validate(origQ Question) error {
	title := core.CleanString(uq.Title)
	if title != "" {
		uq.Title = title
	} else {
		uq.Title = origQ.Title
	}
	text := core.CleanString(uq.Text)
	if text != "" {
		uq.Text = text
	} else {
		uq.Text = origQ.Text
	}
	if uq.Options == nil {
		uq.Options = origQ.Options
	}
	if uq.Correct == 0 {
		uq.Correct = origQ.Correct
	}
	return core.Validate.Struct(uq)
}
