package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/quizmaster/core/score"
	"github.com/trezcool/quizmaster/core/user"
)

type scoreRepository struct {
	db *DB
}

var _ score.Repository = (*scoreRepository)(nil)

func NewScoreRepository(db *DB) *scoreRepository {
	return &scoreRepository{db: db}
}

// info resolves a score's chapter and subject names.
// Callers must hold at least the read lock.
func (repo *scoreRepository) info(sc score.Score) score.ScoreInfo {
	inf := score.ScoreInfo{Score: sc}
	if qz, ok := repo.db.quizzes[sc.QuizID]; ok {
		if chap, ok := repo.db.chapters[qz.ChapterID]; ok {
			inf.ChapterName = chap.Name
			if sub, ok := repo.db.subjects[chap.SubjectID]; ok {
				inf.SubjectName = sub.Name
			}
		}
	}
	return inf
}

func (repo *scoreRepository) CreateScore(_ context.Context, sc score.Score) (score.Score, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.scores {
		if existing.UserID == sc.UserID && existing.QuizID == sc.QuizID {
			return score.Score{}, score.ErrAlreadySubmitted
		}
	}

	sc.ID = uuid.New().String()
	repo.db.scores[sc.ID] = &sc
	return sc, nil
}

func (repo *scoreRepository) GetScore(_ context.Context, id string) (score.ScoreInfo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sc, ok := repo.db.scores[id]; ok {
		return repo.info(*sc), nil
	}
	return score.ScoreInfo{}, score.ErrNotFound
}

func (repo *scoreRepository) QueryScores(_ context.Context, filter *score.QueryFilter) ([]score.ScoreInfo, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var infos []score.ScoreInfo
	for _, sc := range repo.db.scores {
		if filter != nil {
			if filter.UserID != "" && sc.UserID != filter.UserID {
				continue
			}
			if !filter.Since.IsZero() && sc.CreatedAt.Before(filter.Since) {
				continue
			}
			if !filter.Until.IsZero() && !sc.CreatedAt.Before(filter.Until) {
				continue
			}
		}
		infos = append(infos, repo.info(*sc))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	if filter != nil && filter.Limit > 0 && len(infos) > filter.Limit {
		infos = infos[:filter.Limit]
	}
	return infos, nil
}

func (repo *scoreRepository) DashboardStats(_ context.Context) (score.DashboardStats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var stats score.DashboardStats

	for _, usr := range repo.db.users {
		if usr.Role == user.RoleStudent {
			stats.Overview.Students++
		}
	}
	stats.Overview.Quizzes = len(repo.db.quizzes)
	stats.Overview.Questions = len(repo.db.questions)

	var scoreSum, pctSum float64
	for _, sc := range repo.db.scores {
		scoreSum += float64(sc.TotalScored)
		pctSum += sc.Percentage()
	}
	if n := len(repo.db.scores); n > 0 {
		stats.Overview.AvgScore = scoreSum / float64(n)
		stats.Overview.AvgPercentage = pctSum / float64(n)
	}

	// per-subject aggregates
	subjects := make([]score.SubjectStat, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		stat := score.SubjectStat{Name: sub.Name}
		var pcts []float64
		for _, qz := range repo.db.quizzes {
			chap, ok := repo.db.chapters[qz.ChapterID]
			if !ok || chap.SubjectID != sub.ID {
				continue
			}
			stat.Quizzes++
			for _, sc := range repo.db.scores {
				if sc.QuizID == qz.ID {
					pcts = append(pcts, sc.Percentage())
				}
			}
		}
		if len(pcts) > 0 {
			var sum float64
			for _, pct := range pcts {
				sum += pct
			}
			stat.AvgPercentage = sum / float64(len(pcts))
		}
		subjects = append(subjects, stat)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	stats.Subjects = subjects

	// recent activity, most recent first
	scores := make([]score.Score, 0, len(repo.db.scores))
	for _, sc := range repo.db.scores {
		scores = append(scores, *sc)
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].CreatedAt.After(scores[j].CreatedAt) })
	if len(scores) > 10 {
		scores = scores[:10]
	}
	attempts := make([]score.Attempt, 0, len(scores))
	for _, sc := range scores {
		attempts = append(attempts, score.Attempt{
			UserID:    sc.UserID,
			QuizID:    sc.QuizID,
			Score:     sc.TotalScored,
			Total:     sc.TotalQuestions,
			Timestamp: sc.CreatedAt,
		})
	}
	stats.RecentActivity = attempts

	return stats, nil
}
