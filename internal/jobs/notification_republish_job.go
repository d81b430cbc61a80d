package jobs

import (
	"context"
	"log/slog"
)

type republisher interface {
	RepublishPending(ctx context.Context, maxAttempts, limit int) (int, error)
}

// NotificationRepublishJob pushes stored notifications whose first publish
// failed, until they run out of attempts.
type NotificationRepublishJob struct {
	dispatcher  republisher
	maxAttempts int
	batch       int
	logger      *slog.Logger
}

// NewNotificationRepublishJob retries up to batch records per run and gives up on a record after maxAttempts.
func NewNotificationRepublishJob(dispatcher republisher, maxAttempts, batch int, logger *slog.Logger) *NotificationRepublishJob {
	return &NotificationRepublishJob{
		dispatcher:  dispatcher,
		maxAttempts: maxAttempts,
		batch:       batch,
		logger:      logger.With("component", "notification_republish_job"),
	}
}

func (j *NotificationRepublishJob) Name() string { return "notification_republish" }

func (j *NotificationRepublishJob) Run(ctx context.Context) {
	published, err := j.dispatcher.RepublishPending(ctx, j.maxAttempts, j.batch)
	if err != nil {
		j.logger.ErrorContext(ctx, "notification republish failed", "published", published, "error", err)
		return
	}
	if published > 0 {
		j.logger.InfoContext(ctx, "notifications republished", "count", published)
	}
}
