package notifier

import (
	"log/slog"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

var _ model.Notifier = (*Log)(nil)

// Log writes notifications to the structured log. Used when no webhook
// is configured and in tests.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a notifier that logs instead of posting anywhere.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) NotifyCandidates(user string, candidates []model.Candidate) error {
	for _, c := range candidates {
		l.logger.Info("new candidate",
			"user", user,
			"company", c.Job.Company,
			"title", c.Job.Title,
			"location", c.Job.Location,
			"score", c.Score.Score,
			"url", c.Job.URL,
		)
	}
	return nil
}

func (l *Log) NotifyFollowUps(apps []model.Application) error {
	for _, app := range apps {
		l.logger.Info("follow-up due",
			"user", app.UserID,
			"job", app.JobID,
			"state", app.State,
			"due", app.FollowUpDue,
		)
	}
	return nil
}
