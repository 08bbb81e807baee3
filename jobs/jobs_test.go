package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/qudrat-academy/qudrat/internal/jobs"
	"github.com/qudrat-academy/qudrat/internal/progress"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRecalculator struct {
	calls []ProgressRecalculatePayload
	out   progress.LessonProgress
	err   error
}

func (s *stubRecalculator) Recalculate(ctx context.Context, userID int64, itemID string) (progress.LessonProgress, error) {
	s.calls = append(s.calls, ProgressRecalculatePayload{UserID: userID, ItemID: itemID})
	return s.out, s.err
}

func TestProgressRecalculateTaskPayload(t *testing.T) {
	task, err := NewProgressRecalculateTask(3, "item_1")
	require.NoError(t, err)
	assert.Equal(t, TaskProgressRecalculate, task.Type())

	var payload ProgressRecalculatePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, ProgressRecalculatePayload{UserID: 3, ItemID: "item_1"}, payload)

	_, err = NewProgressRecalculateTask(0, "item_1")
	assert.Error(t, err)
}

func TestProgressRecalculateJobHandle(t *testing.T) {
	stub := &stubRecalculator{}
	job := NewProgressRecalculateJob(stub, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewProgressRecalculateTask(3, "item_1")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []ProgressRecalculatePayload{{UserID: 3, ItemID: "item_1"}}, stub.calls)

	stub.err = errors.New("db gone")
	assert.EqualError(t, job.Handle(context.Background(), task), "db gone")
}

func TestProgressRecalculateJobSkipsBadPayload(t *testing.T) {
	stub := &stubRecalculator{}
	job := NewProgressRecalculateJob(stub, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskProgressRecalculate, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	err = job.Handle(context.Background(), asynq.NewTask(TaskProgressRecalculate, []byte(`{"user_id":1}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, stub.calls)
}

type warmerFunc func(ctx context.Context) error

func (f warmerFunc) Warmup(ctx context.Context) error { return f(ctx) }

func TestCatalogWarmupJobHandle(t *testing.T) {
	calls := 0
	job := NewCatalogWarmupJob(warmerFunc(func(ctx context.Context) error {
		calls++
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	}), quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewCatalogWarmupTask("")
	require.NoError(t, err)
	var payload CatalogWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "scheduled", payload.Reason)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, calls)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   float64
	}{
		{name: "no inspector", inspector: nil, status: http.StatusOK},
		{name: "queue info", inspector: stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4, Timestamp: time.Now()}}, status: http.StatusOK, pending: 4},
		{name: "redis down", inspector: stubInspector{err: errors.New("dial tcp")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, quietLogger()).MountRoutes)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
			require.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				return
			}
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, QueueDefault, body["queue"])
			assert.Equal(t, tc.pending, body["pending"])
		})
	}
}
