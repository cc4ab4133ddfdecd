package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/quizmaster/core/quiz"
)

type (
	subjectRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	chapterRow struct {
		ID          string    `db:"id"`
		SubjectID   string    `db:"subject_id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	chapterInfoRow struct {
		chapterRow
		TotalQuestions int `db:"total_questions"`
	}

	quizRow struct {
		ID              string      `db:"id"`
		ChapterID       string      `db:"chapter_id"`
		DateOfQuiz      time.Time   `db:"date_of_quiz"`
		DurationMinutes int         `db:"duration_minutes"`
		Remarks         null.String `db:"remarks"`
		CreatedAt       time.Time   `db:"created_at"`
		UpdatedAt       time.Time   `db:"updated_at"`
	}

	quizDetailRow struct {
		quizRow
		ChapterName string `db:"chapter_name"`
		SubjectID   string `db:"subject_id"`
		SubjectName string `db:"subject_name"`
	}

	quizSummaryRow struct {
		ID              string    `db:"id"`
		ChapterName     string    `db:"chapter_name"`
		SubjectName     string    `db:"subject_name"`
		DateOfQuiz      time.Time `db:"date_of_quiz"`
		DurationMinutes int       `db:"duration_minutes"`
		TotalQuestions  int       `db:"total_questions"`
	}

	questionRow struct {
		ID            string    `db:"id"`
		QuizID        string    `db:"quiz_id"`
		Title         string    `db:"title"`
		QuestionText  string    `db:"question_text"`
		Option1       string    `db:"option_1"`
		Option2       string    `db:"option_2"`
		Option3       string    `db:"option_3"`
		Option4       string    `db:"option_4"`
		CorrectOption int       `db:"correct_option"`
		CreatedAt     time.Time `db:"created_at"`
		UpdatedAt     time.Time `db:"updated_at"`
	}
)

func (row subjectRow) subject() quiz.Subject {
	return quiz.Subject(row)
}

func (row chapterRow) chapter() quiz.Chapter {
	return quiz.Chapter(row)
}

func (row quizRow) quiz() quiz.Quiz {
	return quiz.Quiz{
		ID:              row.ID,
		ChapterID:       row.ChapterID,
		DateOfQuiz:      row.DateOfQuiz,
		DurationMinutes: row.DurationMinutes,
		Remarks:         row.Remarks,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func (row questionRow) question() quiz.Question {
	return quiz.Question{
		ID:        row.ID,
		QuizID:    row.QuizID,
		Title:     row.Title,
		Text:      row.QuestionText,
		Options:   []string{row.Option1, row.Option2, row.Option3, row.Option4},
		Correct:   row.CorrectOption,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func trapQuizErr(err, notFound error) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "subject_name_key" {
		return quiz.ErrSubjectExists
	}
	return err
}

// Subjects

func (repo *quizRepository) CheckSubjectUniqueness(ctx context.Context, name string) error {
	var count int
	q := `SELECT COUNT(*) FROM subject WHERE name = $1`
	if err := repo.db.GetContext(ctx, &count, q, name); err != nil {
		return errors.Wrap(err, "checking subject uniqueness")
	}
	if count > 0 {
		return quiz.ErrSubjectExists
	}
	return nil
}

func (repo *quizRepository) CreateSubject(ctx context.Context, sub quiz.Subject) (quiz.Subject, error) {
	sub.ID = uuid.New().String()
	q := `
INSERT INTO subject (id, name, description, created_at, updated_at)
VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, subjectRow(sub)); err != nil {
		return quiz.Subject{}, trapQuizErr(err, quiz.ErrSubjectNotFound)
	}
	return sub, nil
}

func (repo *quizRepository) QuerySubjects(ctx context.Context) ([]quiz.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM subject ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subs := make([]quiz.Subject, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.subject())
	}
	return subs, nil
}

func (repo *quizRepository) GetSubject(ctx context.Context, id string) (quiz.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		return quiz.Subject{}, trapQuizErr(err, quiz.ErrSubjectNotFound)
	}
	return row.subject(), nil
}

func (repo *quizRepository) UpdateSubject(ctx context.Context, sub quiz.Subject) (quiz.Subject, error) {
	q := `UPDATE subject SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, subjectRow(sub))
	if err != nil {
		return quiz.Subject{}, trapQuizErr(err, quiz.ErrSubjectNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Subject{}, quiz.ErrSubjectNotFound
	}
	return sub, nil
}

func (repo *quizRepository) DeleteSubject(ctx context.Context, id string) error {
	// descendant chapters, quizzes, questions and scores go with it (FK cascades)
	_, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE id = $1`, id)
	return errors.Wrap(err, "deleting subject")
}

// Chapters

func (repo *quizRepository) CreateChapter(ctx context.Context, chap quiz.Chapter) (quiz.Chapter, error) {
	chap.ID = uuid.New().String()
	q := `
INSERT INTO chapter (id, subject_id, name, description, created_at, updated_at)
VALUES (:id, :subject_id, :name, :description, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, chapterRow(chap)); err != nil {
		return quiz.Chapter{}, trapQuizErr(err, quiz.ErrChapterNotFound)
	}
	return chap, nil
}

func (repo *quizRepository) QueryChapters(ctx context.Context, subjectID string) ([]quiz.ChapterInfo, error) {
	q := `
SELECT c.*, COUNT(qn.id) AS total_questions
FROM chapter c
         LEFT JOIN quiz qz ON qz.chapter_id = c.id
         LEFT JOIN question qn ON qn.quiz_id = qz.id
WHERE c.subject_id = $1
GROUP BY c.id
ORDER BY c.name`
	var rows []chapterInfoRow
	if err := repo.db.SelectContext(ctx, &rows, q, subjectID); err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	chaps := make([]quiz.ChapterInfo, 0, len(rows))
	for _, row := range rows {
		chaps = append(chaps, quiz.ChapterInfo{Chapter: row.chapter(), TotalQuestions: row.TotalQuestions})
	}
	return chaps, nil
}

func (repo *quizRepository) GetChapter(ctx context.Context, id string) (quiz.Chapter, error) {
	var row chapterRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM chapter WHERE id = $1`, id); err != nil {
		return quiz.Chapter{}, trapQuizErr(err, quiz.ErrChapterNotFound)
	}
	return row.chapter(), nil
}

func (repo *quizRepository) UpdateChapter(ctx context.Context, chap quiz.Chapter) (quiz.Chapter, error) {
	q := `UPDATE chapter SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, chapterRow(chap))
	if err != nil {
		return quiz.Chapter{}, trapQuizErr(err, quiz.ErrChapterNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Chapter{}, quiz.ErrChapterNotFound
	}
	return chap, nil
}

func (repo *quizRepository) DeleteChapter(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM chapter WHERE id = $1`, id)
	return errors.Wrap(err, "deleting chapter")
}

// Quizzes

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	qz.ID = uuid.New().String()
	q := `
INSERT INTO quiz (id, chapter_id, date_of_quiz, duration_minutes, remarks, created_at, updated_at)
VALUES (:id, :chapter_id, :date_of_quiz, :duration_minutes, :remarks, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, newQuizRow(qz)); err != nil {
		return quiz.Quiz{}, trapQuizErr(err, quiz.ErrQuizNotFound)
	}
	return qz, nil
}

func newQuizRow(qz quiz.Quiz) quizRow {
	return quizRow{
		ID:              qz.ID,
		ChapterID:       qz.ChapterID,
		DateOfQuiz:      qz.DateOfQuiz,
		DurationMinutes: qz.DurationMinutes,
		Remarks:         qz.Remarks,
		CreatedAt:       qz.CreatedAt,
		UpdatedAt:       qz.UpdatedAt,
	}
}

func (repo *quizRepository) QueryQuizDetails(ctx context.Context) ([]quiz.QuizDetail, error) {
	q := `
SELECT qz.*, c.name AS chapter_name, s.id AS subject_id, s.name AS subject_name
FROM quiz qz
         JOIN chapter c ON c.id = qz.chapter_id
         JOIN subject s ON s.id = c.subject_id
ORDER BY qz.date_of_quiz DESC`
	var rows []quizDetailRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying quiz details")
	}

	details := make([]quiz.QuizDetail, 0, len(rows))
	for _, row := range rows {
		questions, err := repo.QueryQuestions(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, quiz.QuizDetail{
			Quiz:        row.quiz(),
			ChapterName: row.ChapterName,
			SubjectID:   row.SubjectID,
			SubjectName: row.SubjectName,
			Questions:   questions,
		})
	}
	return details, nil
}

func (repo *quizRepository) QueryAvailableQuizzes(ctx context.Context, now time.Time) ([]quiz.QuizSummary, error) {
	q := `
SELECT qz.id, c.name AS chapter_name, s.name AS subject_name, qz.date_of_quiz, qz.duration_minutes,
       COUNT(qn.id) AS total_questions
FROM quiz qz
         JOIN chapter c ON c.id = qz.chapter_id
         JOIN subject s ON s.id = c.subject_id
         LEFT JOIN question qn ON qn.quiz_id = qz.id
WHERE qz.date_of_quiz <= $1
GROUP BY qz.id, c.name, s.name
ORDER BY qz.date_of_quiz DESC`
	var rows []quizSummaryRow
	if err := repo.db.SelectContext(ctx, &rows, q, now); err != nil {
		return nil, errors.Wrap(err, "querying available quizzes")
	}
	summaries := make([]quiz.QuizSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, quiz.QuizSummary{
			ID:             row.ID,
			Chapter:        row.ChapterName,
			Subject:        row.SubjectName,
			DateOfQuiz:     row.DateOfQuiz,
			Duration:       row.DurationMinutes,
			TotalQuestions: row.TotalQuestions,
		})
	}
	return summaries, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var row quizRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM quiz WHERE id = $1`, id); err != nil {
		return quiz.Quiz{}, trapQuizErr(err, quiz.ErrQuizNotFound)
	}
	return row.quiz(), nil
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	q := `
UPDATE quiz
SET date_of_quiz = :date_of_quiz, duration_minutes = :duration_minutes, remarks = :remarks, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, newQuizRow(qz))
	if err != nil {
		return quiz.Quiz{}, trapQuizErr(err, quiz.ErrQuizNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return qz, nil
}

func (repo *quizRepository) DeleteQuiz(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM quiz WHERE id = $1`, id)
	return errors.Wrap(err, "deleting quiz")
}

// Questions

func (repo *quizRepository) CreateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	qn.ID = uuid.New().String()
	q := `
INSERT INTO question (id, quiz_id, title, question_text, option_1, option_2, option_3, option_4,
                      correct_option, created_at, updated_at)
VALUES (:id, :quiz_id, :title, :question_text, :option_1, :option_2, :option_3, :option_4,
        :correct_option, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, newQuestionRow(qn)); err != nil {
		return quiz.Question{}, trapQuizErr(err, quiz.ErrQuestionNotFound)
	}
	return qn, nil
}

func newQuestionRow(qn quiz.Question) questionRow {
	row := questionRow{
		ID:            qn.ID,
		QuizID:        qn.QuizID,
		Title:         qn.Title,
		QuestionText:  qn.Text,
		CorrectOption: qn.Correct,
		CreatedAt:     qn.CreatedAt,
		UpdatedAt:     qn.UpdatedAt,
	}
	if len(qn.Options) == quiz.OptionCount {
		row.Option1, row.Option2, row.Option3, row.Option4 = qn.Options[0], qn.Options[1], qn.Options[2], qn.Options[3]
	}
	return row
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, quizID string) ([]quiz.Question, error) {
	var rows []questionRow
	q := `SELECT * FROM question WHERE quiz_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, quizID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.question())
	}
	return questions, nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, id string) (quiz.Question, error) {
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM question WHERE id = $1`, id); err != nil {
		return quiz.Question{}, trapQuizErr(err, quiz.ErrQuestionNotFound)
	}
	return row.question(), nil
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	q := `
UPDATE question
SET title = :title, question_text = :question_text, option_1 = :option_1, option_2 = :option_2,
    option_3 = :option_3, option_4 = :option_4, correct_option = :correct_option, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, newQuestionRow(qn))
	if err != nil {
		return quiz.Question{}, trapQuizErr(err, quiz.ErrQuestionNotFound)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return qn, nil
}

func (repo *quizRepository) DeleteQuestion(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM question WHERE id = $1`, id)
	return errors.Wrap(err, "deleting question")
}
