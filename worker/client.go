package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/trezcool/quizmaster/core"
)

// Client enqueues one-off tasks from other processes (the API mainly).
type Client struct {
	client *asynq.Client
}

func NewClient(conf *core.Config) *Client {
	return &Client{client: asynq.NewClient(redisOpt(conf))}
}

// ScheduleCSVExport enqueues a CSV export of the user's scores; the
// resulting file is emailed to them. Unique per user while pending so
// double-clicks don't fan out duplicate emails.
func (c *Client) ScheduleCSVExport(_ context.Context, userID string) (string, error) {
	task := asynq.NewTask(TypeCSVExport, map[string]interface{}{"user_id": userID})
	res, err := c.client.Enqueue(task,
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(core.Conf.Worker.TaskTimeout),
		asynq.Unique(core.Conf.Worker.TaskTimeout),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return "", core.NewValidationError(errors.New("an export is already in progress"))
		}
		return "", errors.Wrap(err, "enqueueing CSV export")
	}
	return res.ID, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
