package worker

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/score"
)

// handleMonthlyReport emails each student a summary of their quiz
// activity over the previous calendar month. Students with no attempts
// in the window are skipped.
func (h *handler) handleMonthlyReport(ctx context.Context, _ *asynq.Task) error {
	now := nowFunc().UTC()
	until := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := until.AddDate(0, -1, 0)

	students, err := h.userSvc.QueryStudents(ctx)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	var sent int
	for _, usr := range students {
		scores, err := h.scoreSvc.MonthScores(ctx, usr.ID, since, until)
		if err != nil {
			return errors.Wrapf(err, "querying month scores for %s", usr.Username)
		}
		if len(scores) == 0 {
			continue
		}

		var sum float64
		for _, sc := range scores {
			sum += sc.Percentage()
		}

		h.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
			Subject:      "Your activity report for " + since.Format("January 2006"),
			TemplateName: "monthly_report",
			TemplateData: monthlyReportData{
				Username:      usr.Username,
				Month:         since.Format("January 2006"),
				Attempts:      len(scores),
				AvgPercentage: sum / float64(len(scores)),
				Scores:        scores,
			},
		})
		sent++
	}

	h.logger.Info(fmt.Sprintf("monthly report: sent %d report(s) for %s", sent, since.Format("January 2006")))
	return nil
}

type monthlyReportData struct {
	Username      string
	Month         string
	Attempts      int
	AvgPercentage float64
	Scores        []score.ScoreInfo
}
