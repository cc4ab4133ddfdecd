package worker

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core"
)

const inactivityWindow = 24 * time.Hour

// handleDailyReminder emails students who have not visited in the last
// 24 hours, provided there are quizzes open for taking.
func (h *handler) handleDailyReminder(ctx context.Context, _ *asynq.Task) error {
	quizzes, err := h.quizSvc.QueryAvailableQuizzes(ctx)
	if err != nil {
		return errors.Wrap(err, "querying available quizzes")
	}
	if len(quizzes) == 0 {
		h.logger.Info("daily reminder: no open quizzes, nothing to send")
		return nil
	}

	cutoff := nowFunc().UTC().Add(-inactivityWindow)
	students, err := h.userSvc.QueryInactiveStudents(ctx, cutoff)
	if err != nil {
		return errors.Wrap(err, "querying inactive students")
	}

	messages := make([]*core.EmailMessage, 0, len(students))
	for _, usr := range students {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
			Subject:      "Quizzes are waiting for you",
			TemplateName: "reminder",
			TemplateData: reminderData{
				Username:  usr.Username,
				QuizCount: len(quizzes),
			},
		})
	}
	h.mailSvc.SendMessages(messages...)

	h.logger.Info(fmt.Sprintf("daily reminder: notified %d student(s) of %d open quiz(zes)", len(students), len(quizzes)))
	return nil
}

type reminderData struct {
	Username  string
	QuizCount int
}
