package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"contacthub/internal/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	jobs   []*Job
	done   []uint64
	failed map[uint64]string
}

func (q *fakeQueue) Claim(ctx context.Context, workerID string) (*Job, error) {
	if len(q.jobs) == 0 {
		return nil, nil
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	return j, nil
}

func (q *fakeQueue) MarkDone(ctx context.Context, id uint64) error {
	q.done = append(q.done, id)
	return nil
}

func (q *fakeQueue) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	if q.failed == nil {
		q.failed = map[uint64]string{}
	}
	q.failed[id] = errMsg
	return nil
}

type fakeFirer struct {
	urls     []string
	payloads []webhook.Payload
	err      error
}

func (f *fakeFirer) Fire(ctx context.Context, url string, p webhook.Payload) error {
	f.urls = append(f.urls, url)
	f.payloads = append(f.payloads, p)
	return f.err
}

func webhookJobFor(t *testing.T, id uint64, url string, p webhook.Payload) *Job {
	t.Helper()
	body, err := json.Marshal(p)
	require.NoError(t, err)
	payload, err := json.Marshal(webhookJob{URL: url, Body: body})
	require.NoError(t, err)
	return &Job{ID: id, UserID: 1, Type: TypeWebhookDispatch, Payload: payload, MaxAttempts: 1}
}

func TestWorkerDeliversWebhook(t *testing.T) {
	p := webhook.NewContactPayload("Ann", "ann@example.com", time.Unix(0, 0))
	q := &fakeQueue{jobs: []*Job{webhookJobFor(t, 5, "https://example.com/hook", p)}}
	f := &fakeFirer{}
	w := &Worker{ID: "w", Queue: q, Webhooks: f}

	w.Tick(context.Background())

	assert.Equal(t, []string{"https://example.com/hook"}, f.urls)
	assert.Equal(t, []webhook.Payload{p}, f.payloads)
	assert.Equal(t, []uint64{5}, q.done)
	assert.Empty(t, q.failed)
}

func TestWorkerDoesNotRetry(t *testing.T) {
	p := webhook.NewContactPayload("Ann", "ann@example.com", time.Unix(0, 0))
	q := &fakeQueue{jobs: []*Job{webhookJobFor(t, 9, "https://example.com/hook", p)}}
	f := &fakeFirer{err: errors.New("dial tcp: connection refused")}
	w := &Worker{ID: "w", Queue: q, Webhooks: f}

	w.Tick(context.Background())
	w.Tick(context.Background())

	assert.Len(t, f.urls, 1)
	assert.Equal(t, map[uint64]string{9: "dial tcp: connection refused"}, q.failed)
	assert.Empty(t, q.done)
}

func TestWorkerRejectsBadJobs(t *testing.T) {
	q := &fakeQueue{jobs: []*Job{
		{ID: 1, Type: "CLEANUP"},
		{ID: 2, Type: TypeWebhookDispatch, Payload: []byte("{")},
	}}
	f := &fakeFirer{}
	w := &Worker{ID: "w", Queue: q, Webhooks: f}

	w.Tick(context.Background())
	w.Tick(context.Background())

	assert.Equal(t, map[uint64]string{1: "unknown job type", 2: "bad payload"}, q.failed)
	assert.Empty(t, f.urls)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := &Worker{ID: "w", Queue: &fakeQueue{}, Webhooks: &fakeFirer{}, Interval: time.Millisecond}

	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
