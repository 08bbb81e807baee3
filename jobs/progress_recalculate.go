package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/qudrat-academy/qudrat/internal/jobs"
	"github.com/qudrat-academy/qudrat/internal/progress"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ProgressRecalculator rebuilds one lesson progress row.
type ProgressRecalculator interface {
	Recalculate(ctx context.Context, userID int64, itemID string) (progress.LessonProgress, error)
}

// ProgressRecalculateJob handles TaskProgressRecalculate.
type ProgressRecalculateJob struct {
	Progress ProgressRecalculator
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewProgressRecalculateJob wires dependencies for the recalculation handler.
func NewProgressRecalculateJob(svc ProgressRecalculator, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProgressRecalculateJob {
	return &ProgressRecalculateJob{Progress: svc, Logger: logger, Metrics: metrics}
}

// Handle processes progress recalculation tasks.
func (j *ProgressRecalculateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Progress == nil {
		return errors.New("progress recalculate: handler not configured")
	}
	var payload ProgressRecalculatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UserID <= 0 || payload.ItemID == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskProgressRecalculate)
	logger := j.logger().With(slog.Int64("user_id", payload.UserID), slog.String("item_id", payload.ItemID))

	lp, err := j.Progress.Recalculate(ctx, payload.UserID, payload.ItemID)
	if err != nil {
		logger.Error("recalculate progress", slog.Any("error", err))
		return tracker.End(err)
	}
	// Completed by this run.
	if lp.CompletedAt != nil && lp.CompletedAt.Equal(lp.LastActivity) {
		j.metrics().LessonCompleted()
	}
	logger.Debug("progress recalculated",
		slog.Int("answered", lp.AnsweredQuestions),
		slog.Int("total", lp.TotalQuestions))
	return tracker.End(nil)
}

func (j *ProgressRecalculateJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProgressRecalculate))
	}
	return slog.Default().With(slog.String("job", TaskProgressRecalculate))
}

func (j *ProgressRecalculateJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
