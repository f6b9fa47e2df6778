package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/TarasYkv/shop-mirror-daemon/app/db"
	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
)

type RestoreRepository interface {
	UpdateJob(ctx context.Context, job entity.RestoreJob) error
	SelectJob(ctx context.Context, jobID string) (entity.RestoreJob, error)
	ListJobs(ctx context.Context, runID string) ([]entity.RestoreJob, error)
	RemoveRunJobs(ctx context.Context, runID string) error
	AddLog(ctx context.Context, log entity.RestoreLog) error
	ListLogs(ctx context.Context, jobID string) ([]entity.RestoreLog, error)
}

var ErrNotFound = errors.New("not found")

type RestoreRepo struct {
	db *db.Db
}

func NewRestoreRepo(db *db.Db) RestoreRepository {
	return &RestoreRepo{
		db: db,
	}
}

func (d *RestoreRepo) UpdateJob(ctx context.Context, job entity.RestoreJob) error {
	upsertQuery := `
		insert into restore_jobs (id, run_id, policy, categories, status,
			success_count, exists_count, failed_count, skipped_count,
			current_step, progress_message, error_message, created_at, started_at, completed_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		on conflict(id) do update set
			status           = excluded.status,
			success_count    = excluded.success_count,
			exists_count     = excluded.exists_count,
			failed_count     = excluded.failed_count,
			skipped_count    = excluded.skipped_count,
			current_step     = excluded.current_step,
			progress_message = excluded.progress_message,
			error_message    = excluded.error_message,
			started_at       = excluded.started_at,
			completed_at     = excluded.completed_at,
			categories       = COALESCE(NULLIF(excluded.categories, ''), restore_jobs.categories);
	`

	_, err := d.db.WriterDB.ExecContext(
		ctx, upsertQuery,
		job.ID, job.RunID, job.Policy, job.Categories, job.Status,
		job.SuccessCount, job.ExistsCount, job.FailedCount, job.SkippedCount,
		job.CurrentStep, job.ProgressMessage, job.ErrorMessage, job.CreatedAt, job.StartedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("error updating restore job: %w", err)
	}
	return nil
}

func (d *RestoreRepo) SelectJob(ctx context.Context, jobID string) (entity.RestoreJob, error) {
	var job entity.RestoreJob
	query := `select * from restore_jobs where id = $1`

	err := d.db.ReaderDB.QueryRowxContext(ctx, query, jobID).StructScan(&job)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.RestoreJob{}, fmt.Errorf("no restore job found with id %s: %w", jobID, ErrNotFound)
		}
		return entity.RestoreJob{}, fmt.Errorf("error getting restore job: %w", err)
	}
	return job, nil
}

func (d *RestoreRepo) ListJobs(ctx context.Context, runID string) ([]entity.RestoreJob, error) {
	jobs := []entity.RestoreJob{}
	err := d.db.ReaderDB.SelectContext(ctx, &jobs,
		`select * from restore_jobs where run_id = $1 order by created_at desc`, runID)
	if err != nil {
		return nil, fmt.Errorf("error listing restore jobs: %w", err)
	}
	return jobs, nil
}

func (d *RestoreRepo) RemoveRunJobs(ctx context.Context, runID string) error {
	if _, err := d.db.WriterDB.ExecContext(ctx, `delete from restore_logs where run_id = $1`, runID); err != nil {
		return fmt.Errorf("unable to delete restore logs of run %s: %w", runID, err)
	}
	if _, err := d.db.WriterDB.ExecContext(ctx, `delete from restore_jobs where run_id = $1`, runID); err != nil {
		return fmt.Errorf("unable to delete restore jobs of run %s: %w", runID, err)
	}
	return nil
}

func (d *RestoreRepo) AddLog(ctx context.Context, log entity.RestoreLog) error {
	if log.CreatedAt == 0 {
		log.CreatedAt = entity.NowMillis()
	}
	_, err := d.db.WriterDB.NamedExecContext(ctx, `insert into restore_logs
		(job_id, run_id, item_id, item_type, external_id, title, status, new_external_id, message, created_at)
		values (:job_id, :run_id, :item_id, :item_type, :external_id, :title, :status, :new_external_id, :message, :created_at)`,
		log)
	if err != nil {
		return fmt.Errorf("error adding restore log: %w", err)
	}
	return nil
}

func (d *RestoreRepo) ListLogs(ctx context.Context, jobID string) ([]entity.RestoreLog, error) {
	logs := []entity.RestoreLog{}
	err := d.db.ReaderDB.SelectContext(ctx, &logs,
		`select id, job_id, run_id, item_id, item_type, external_id, title, status, new_external_id, message, created_at
		from restore_logs where job_id = $1 order by id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("error listing restore logs: %w", err)
	}
	return logs, nil
}
