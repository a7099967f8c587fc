package jobs

import (
	"context"
	"encoding/json"
	"time"

	"contacthub/internal/webhook"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

// EnqueueWebhook schedules one delivery attempt of p to url.
func (r *Repo) EnqueueWebhook(ctx context.Context, userID uint64, url string, p webhook.Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(webhookJob{URL: url, Body: body})
	if err != nil {
		return err
	}
	j := Job{
		UserID:      userID,
		Type:        TypeWebhookDispatch,
		Payload:     payload,
		RunAt:       time.Now(),
		Status:      StatusPending,
		MaxAttempts: 1,
	}
	return r.DB.WithContext(ctx).Create(&j).Error
}

// Claim one due job atomically using SKIP LOCKED.
// Works on Postgres.
func (r *Repo) Claim(ctx context.Context, workerID string) (*Job, error) {
	var job Job
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// stuck RUNNING jobs go back to PENDING, or FAILED once out of attempts
		if err := tx.Exec(`
update jobs
set status = case when attempts < max_attempts then 'PENDING' else 'FAILED' end,
    last_error = case when attempts < max_attempts then last_error else 'worker lost' end,
    locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`).Error; err != nil {
			return err
		}

		// FOR UPDATE SKIP LOCKED ensures no double-claim
		q := tx.Raw(`
with cte as (
  select id
  from jobs
  where status='PENDING' and run_at <= now() and attempts < max_attempts
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status='RUNNING', attempts=attempts+1, locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID)

		return q.Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Exec(`update jobs set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	return r.DB.WithContext(ctx).Exec(`update jobs set status='FAILED', last_error=?, updated_at=now() where id=?`, errMsg, id).Error
}
