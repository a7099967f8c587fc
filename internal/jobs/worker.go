package jobs

import (
	"context"
	"encoding/json"
	"time"

	"contacthub/internal/logging"
	"contacthub/internal/webhook"

	"go.uber.org/zap"
)

// Queue is the part of Repo the worker drives.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*Job, error)
	MarkDone(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64, errMsg string) error
}

type Firer interface {
	Fire(ctx context.Context, url string, p webhook.Payload) error
}

type Worker struct {
	ID       string
	Queue    Queue
	Webhooks Firer
	Log      *zap.Logger
	Interval time.Duration
}

func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick claims and handles at most one due job.
func (w *Worker) Tick(ctx context.Context) {
	log := logging.OrNop(w.Log)

	job, err := w.Queue.Claim(ctx, w.ID)
	if err != nil {
		log.Error("worker claim", zap.String("worker", w.ID), zap.Error(err))
		return
	}
	if job == nil {
		return
	}
	w.handle(ctx, job)
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeWebhookDispatch:
		w.handleWebhook(ctx, job)
	default:
		w.fail(ctx, job, "unknown job type")
	}
}

func (w *Worker) handleWebhook(ctx context.Context, job *Job) {
	var wj webhookJob
	if err := json.Unmarshal(job.Payload, &wj); err != nil {
		w.fail(ctx, job, "bad payload")
		return
	}
	var p webhook.Payload
	if err := json.Unmarshal(wj.Body, &p); err != nil {
		w.fail(ctx, job, "bad payload")
		return
	}

	// single attempt: a failed delivery is recorded, never retried
	if err := w.Webhooks.Fire(ctx, wj.URL, p); err != nil {
		w.fail(ctx, job, err.Error())
		return
	}
	if err := w.Queue.MarkDone(ctx, job.ID); err != nil {
		logging.OrNop(w.Log).Error("mark job done", zap.Uint64("job_id", job.ID), zap.Error(err))
	}
}

func (w *Worker) fail(ctx context.Context, job *Job, msg string) {
	log := logging.OrNop(w.Log)
	log.Warn("job failed",
		zap.Uint64("job_id", job.ID),
		zap.Uint64("user_id", job.UserID),
		zap.String("type", job.Type),
		zap.String("error", msg))
	if err := w.Queue.MarkFailed(ctx, job.ID, msg); err != nil {
		log.Error("mark job failed", zap.Uint64("job_id", job.ID), zap.Error(err))
	}
}
