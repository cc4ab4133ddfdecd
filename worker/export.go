package worker

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core"
	"github.com/trezcool/quizmaster/core/score"
)

// handleCSVExport builds a CSV of the user's scores and emails it to
// them as an attachment.
func (h *handler) handleCSVExport(ctx context.Context, task *asynq.Task) error {
	userID, err := task.Payload.GetString("user_id")
	if err != nil {
		return errors.Wrap(err, "reading task payload")
	}

	usr, err := h.userSvc.GetByID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	scores, err := h.scoreSvc.UserScores(ctx, usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying user scores")
	}

	var buf bytes.Buffer
	if err := score.WriteCSV(&buf, scores); err != nil {
		return errors.Wrap(err, "writing CSV")
	}

	filename := fmt.Sprintf("quiz_scores_%s.csv", nowFunc().UTC().Format("20060102"))
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject: "Your quiz scores export",
		BodyStr: fmt.Sprintf("Hi %s,\n\nYour quiz scores export is attached.\n", usr.Username),
	}
	if err := msg.Attach(&buf, filename, "text/csv"); err != nil {
		return errors.Wrap(err, "attaching CSV")
	}
	h.mailSvc.SendMessages(msg)

	h.logger.Info(fmt.Sprintf("CSV export: emailed %d score(s) to %s", len(scores), usr.Email))
	return nil
}
