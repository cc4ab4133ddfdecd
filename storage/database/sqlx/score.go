package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

type (
	scoreRow struct {
		ID             string    `db:"id"`
		UserID         string    `db:"user_id"`
		QuizID         string    `db:"quiz_id"`
		TotalScored    int       `db:"total_scored"`
		TotalQuestions int       `db:"total_questions"`
		CreatedAt      time.Time `db:"created_at"`
	}

	scoreInfoRow struct {
		scoreRow
		ChapterName string `db:"chapter_name"`
		SubjectName string `db:"subject_name"`
	}
)

func (row scoreInfoRow) info() score.ScoreInfo {
	return score.ScoreInfo{
		Score:       score.Score(row.scoreRow),
		ChapterName: row.ChapterName,
		SubjectName: row.SubjectName,
	}
}

type scoreRepository struct {
	db *sqlx.DB
}

var _ score.Repository = (*scoreRepository)(nil)

func NewScoreRepository(db *sqlx.DB) *scoreRepository {
	return &scoreRepository{db: db}
}

func (repo *scoreRepository) CreateScore(ctx context.Context, sc score.Score) (score.Score, error) {
	sc.ID = uuid.New().String()
	q := `
INSERT INTO score (id, user_id, quiz_id, total_scored, total_questions, created_at)
VALUES (:id, :user_id, :quiz_id, :total_scored, :total_questions, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, scoreRow(sc)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "score_user_quiz_uniq" {
			return score.Score{}, score.ErrAlreadySubmitted
		}
		return score.Score{}, errors.Wrap(err, "creating score")
	}
	return sc, nil
}

const scoreInfoQuery = `
SELECT sc.*, c.name AS chapter_name, s.name AS subject_name
FROM score sc
         JOIN quiz qz ON qz.id = sc.quiz_id
         JOIN chapter c ON c.id = qz.chapter_id
         JOIN subject s ON s.id = c.subject_id`

func (repo *scoreRepository) GetScore(ctx context.Context, id string) (score.ScoreInfo, error) {
	var row scoreInfoRow
	if err := repo.db.GetContext(ctx, &row, scoreInfoQuery+" WHERE sc.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return score.ScoreInfo{}, score.ErrNotFound
		}
		return score.ScoreInfo{}, errors.Wrap(err, "getting score")
	}
	return row.info(), nil
}

func (repo *scoreRepository) QueryScores(ctx context.Context, filter *score.QueryFilter) ([]score.ScoreInfo, error) {
	q := scoreInfoQuery
	var args []interface{}
	if filter != nil {
		var conds []string
		if filter.UserID != "" {
			args = append(args, filter.UserID)
			conds = append(conds, fmt.Sprintf("sc.user_id = $%d", len(args)))
		}
		if !filter.Since.IsZero() {
			args = append(args, filter.Since)
			conds = append(conds, fmt.Sprintf("sc.created_at >= $%d", len(args)))
		}
		if !filter.Until.IsZero() {
			args = append(args, filter.Until)
			conds = append(conds, fmt.Sprintf("sc.created_at < $%d", len(args)))
		}
		if len(conds) > 0 {
			q += " WHERE " + strings.Join(conds, " AND ")
		}
	}
	q += " ORDER BY sc.created_at DESC"
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var rows []scoreInfoRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying scores")
	}
	infos := make([]score.ScoreInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, row.info())
	}
	return infos, nil
}

func (repo *scoreRepository) DashboardStats(ctx context.Context) (score.DashboardStats, error) {
	var stats score.DashboardStats

	overviewQ := `
SELECT (SELECT COUNT(*) FROM "user" WHERE role = $1)                                   AS students,
       (SELECT COUNT(*) FROM quiz)                                                     AS quizzes,
       (SELECT COUNT(*) FROM question)                                                 AS questions,
       COALESCE(AVG(total_scored), 0)                                                  AS avg_score,
       COALESCE(AVG(total_scored::float / NULLIF(total_questions, 0) * 100), 0)        AS avg_percentage
FROM score`
	var overview struct {
		Students      int     `db:"students"`
		Quizzes       int     `db:"quizzes"`
		Questions     int     `db:"questions"`
		AvgScore      float64 `db:"avg_score"`
		AvgPercentage float64 `db:"avg_percentage"`
	}
	if err := repo.db.GetContext(ctx, &overview, overviewQ, user.RoleStudent); err != nil {
		return stats, errors.Wrap(err, "computing overview stats")
	}
	stats.Overview = score.Overview(overview)

	subjectsQ := `
SELECT s.name                                                                          AS name,
       COUNT(DISTINCT qz.id)                                                           AS quizzes,
       COALESCE(AVG(sc.total_scored::float / NULLIF(sc.total_questions, 0) * 100), 0)  AS avg_percentage
FROM subject s
         LEFT JOIN chapter c ON c.subject_id = s.id
         LEFT JOIN quiz qz ON qz.chapter_id = c.id
         LEFT JOIN score sc ON sc.quiz_id = qz.id
GROUP BY s.id
ORDER BY s.name`
	var subjectRows []struct {
		Name          string  `db:"name"`
		Quizzes       int     `db:"quizzes"`
		AvgPercentage float64 `db:"avg_percentage"`
	}
	if err := repo.db.SelectContext(ctx, &subjectRows, subjectsQ); err != nil {
		return stats, errors.Wrap(err, "computing subject stats")
	}
	for _, row := range subjectRows {
		stats.Subjects = append(stats.Subjects, score.SubjectStat(row))
	}

	recentQ := `
SELECT user_id, quiz_id, total_scored AS score, total_questions AS total, created_at AS "timestamp"
FROM score
ORDER BY created_at DESC
LIMIT $1`
	var recentRows []struct {
		UserID    string    `db:"user_id"`
		QuizID    string    `db:"quiz_id"`
		Score     int       `db:"score"`
		Total     int       `db:"total"`
		Timestamp time.Time `db:"timestamp"`
	}
	if err := repo.db.SelectContext(ctx, &recentRows, recentQ, recentActivityLimit); err != nil {
		return stats, errors.Wrap(err, "querying recent activity")
	}
	for _, row := range recentRows {
		stats.RecentActivity = append(stats.RecentActivity, score.Attempt(row))
	}

	return stats, nil
}

const recentActivityLimit = 10
