package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProgressRecalculate rebuilds one user's progress on one lesson.
	TaskProgressRecalculate = "progress:recalculate"
	// TaskCatalogWarmup reloads the cached catalog tree.
	TaskCatalogWarmup = "catalog:warmup"
)

// ProgressRecalculatePayload identifies the lesson progress row to rebuild.
type ProgressRecalculatePayload struct {
	UserID int64  `json:"user_id"`
	ItemID string `json:"item_id"`
}

// NewProgressRecalculateTask constructs an Asynq task.
func NewProgressRecalculateTask(userID int64, itemID string) (*asynq.Task, error) {
	if userID <= 0 || itemID == "" {
		return nil, fmt.Errorf("jobs: progress recalculate needs user and item")
	}
	data, err := json.Marshal(ProgressRecalculatePayload{UserID: userID, ItemID: itemID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProgressRecalculate, data, asynq.MaxRetry(5)), nil
}

// CatalogWarmupPayload carries the reason a warmup was requested.
type CatalogWarmupPayload struct {
	Reason string `json:"reason"`
}

// NewCatalogWarmupTask constructs an Asynq task.
func NewCatalogWarmupTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	data, err := json.Marshal(CatalogWarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogWarmup, data, asynq.MaxRetry(3)), nil
}
