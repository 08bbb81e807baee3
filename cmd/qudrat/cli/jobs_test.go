package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/qudrat-academy/qudrat/jobs"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct{}

func (stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Pending: 2, Active: 1, Scheduled: 3}, nil
}

func (stubInspector) Close() error { return nil }

func TestJobsCLITrigger(t *testing.T) {
	enq := &stubEnqueuer{}
	c := &JobsCLI{client: enq, inspector: stubInspector{}}
	var out bytes.Buffer

	require.NoError(t, c.Run(context.Background(), &out, []string{"trigger", jobs.TaskCatalogWarmup}))
	require.Contains(t, out.String(), "enqueued catalog:warmup id=t1")

	require.NoError(t, c.Run(context.Background(), &out, []string{"trigger", jobs.TaskProgressRecalculate, "12", "item_1"}))
	require.Len(t, enq.tasks, 2)
	var payload jobs.ProgressRecalculatePayload
	require.NoError(t, json.Unmarshal(enq.tasks[1].Payload(), &payload))
	require.Equal(t, jobs.ProgressRecalculatePayload{UserID: 12, ItemID: "item_1"}, payload)

	require.Error(t, c.Run(context.Background(), &out, []string{"trigger", jobs.TaskProgressRecalculate, "x", "item_1"}))
	require.Error(t, c.Run(context.Background(), &out, []string{"trigger", "mail:send"}))
	require.Len(t, enq.tasks, 2)
}

func TestJobsCLIStats(t *testing.T) {
	c := &JobsCLI{client: &stubEnqueuer{}, inspector: stubInspector{}}
	var out bytes.Buffer
	require.NoError(t, c.Run(context.Background(), &out, []string{"stats"}))
	require.Equal(t, "queue=default pending=2 active=1 scheduled=3 retry=0\n", out.String())
}
