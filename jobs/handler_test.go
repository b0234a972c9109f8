package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls int
	err   error
}

func (f *fakeEnqueuer) EnqueueOverdueSweep(_ context.Context, _ OverdueSweepPayload) (*asynq.TaskInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(enqueuer SweepEnqueuer) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(nil, enqueuer, logger)
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)
	return r
}

func TestTriggerSweepEnqueues(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newJobsRouter(enqueuer)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/overdue-sweep", nil))

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, 1, enqueuer.calls)
	require.JSONEq(t, `{"task":"task-1","queue":"default"}`, rr.Body.String())
}

func TestTriggerSweepEnqueueFailure(t *testing.T) {
	enqueuer := &fakeEnqueuer{err: errors.New("redis down")}
	router := newJobsRouter(enqueuer)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/overdue-sweep", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestTriggerSweepWithoutQueue(t *testing.T) {
	router := newJobsRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/overdue-sweep", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
