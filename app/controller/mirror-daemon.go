package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/metrics"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrJobInProgress  = errors.New("another job is in progress")
	ErrInvalidRequest = errors.New("invalid request")
	ErrRunNotFinished = errors.New("backup run is not completed")
	ErrS3Disabled     = errors.New("s3 mirror is disabled")
)

//go:generate mockgen -source=mirror-daemon.go -destination=../rest/mock.go -package=rest
type MirrorDaemonUseCase interface {
	StartBackup(ctx context.Context, request entity.BackupRequest) (entity.BackupResponse, error)
	GetBackup(ctx context.Context, runID string) (entity.BackupRun, error)
	ListBackups(ctx context.Context, shop string) ([]entity.BackupRun, error)
	RemoveBackup(ctx context.Context, runID string) error
	Compare(ctx context.Context, runID string, itemType entity.ItemType) (entity.CompareResponse, error)
	StartRestore(ctx context.Context, runID string, request entity.RestoreRequest) (entity.RestoreResponse, error)
	GetRestore(ctx context.Context, jobID string) (entity.RestoreJobResponse, error)
	ListRestores(ctx context.Context, runID string) ([]entity.RestoreJob, error)
	Export(ctx context.Context, runID string) (entity.ExportResponse, error)
	ListExports(ctx context.Context, runID string) ([]entity.ExportArchive, error)
	OpenExport(ctx context.Context, name string) (*os.File, entity.ExportArchive, error)
	CreateS3PresignedURL(ctx context.Context, request entity.S3PresignedURLRequest) (entity.S3PresignedURLResponse, error)
	Wait()
}

// MirrorDaemon runs one backup or restore job at a time in the background. Pollers read progress
// from the persisted run and job records.
type MirrorDaemon struct {
	store             repo.SnapshotStore
	restoreRepo       repo.RestoreRepository
	storage           repo.ExportRepository
	fetcher           *shopify.Fetcher
	backup            *BackupEngine
	compare           *CompareEngine
	exporter          *Exporter
	s3Client          S3ClientRepository
	executor          CommandExecutor
	shop              string
	exportAfterBackup bool
	logger            *zap.SugaredLogger

	busy atomic.Bool
	jobs sync.WaitGroup
}

// NewMirrorDaemon wires the engines. s3Client is nil when the S3 mirror is off.
func NewMirrorDaemon(store repo.SnapshotStore, restoreRepo repo.RestoreRepository, storage repo.ExportRepository,
	fetcher *shopify.Fetcher, exporter *Exporter, s3Client S3ClientRepository, executor CommandExecutor,
	shop string, exportAfterBackup bool, logger *zap.SugaredLogger) MirrorDaemonUseCase {
	source := NewShopSource(fetcher, logger)
	return &MirrorDaemon{
		store:             store,
		restoreRepo:       restoreRepo,
		storage:           storage,
		fetcher:           fetcher,
		backup:            NewBackupEngine(store, source, fetcher.Client(), logger),
		compare:           NewCompareEngine(store, source, logger),
		exporter:          exporter,
		s3Client:          s3Client,
		executor:          executor,
		shop:              shop,
		exportAfterBackup: exportAfterBackup,
		logger:            logger,
	}
}

func (d *MirrorDaemon) acquire() error {
	if !d.busy.CompareAndSwap(false, true) {
		return ErrJobInProgress
	}
	return nil
}

func (d *MirrorDaemon) release() {
	d.busy.Store(false)
}

// Wait blocks until the running job, if any, has finished.
func (d *MirrorDaemon) Wait() {
	d.jobs.Wait()
}

func (d *MirrorDaemon) StartBackup(ctx context.Context, request entity.BackupRequest) (entity.BackupResponse, error) {
	selection := request.Selection
	if request.All {
		selection = entity.AllSelection()
	}
	if selection.Empty() {
		return entity.BackupResponse{}, fmt.Errorf("%w: no category selected", ErrInvalidRequest)
	}
	shop := strings.TrimSpace(request.Shop)
	if shop == "" {
		shop = d.shop
	}
	if shop != d.shop {
		return entity.BackupResponse{}, fmt.Errorf("%w: this daemon mirrors %s", ErrInvalidRequest, d.shop)
	}
	if err := d.acquire(); err != nil {
		return entity.BackupResponse{}, err
	}

	run := entity.BackupRun{
		ID:        uuid.New().String(),
		Shop:      shop,
		Selection: selection,
		Status:    entity.RunPending,
		CreatedAt: entity.NowMillis(),
	}
	if err := d.store.CreateRun(ctx, run); err != nil {
		d.release()
		return entity.BackupResponse{}, fmt.Errorf("failed to create run err: %w", err)
	}

	d.jobs.Add(1)
	go func() {
		defer d.jobs.Done()
		defer d.release()
		d.runBackup(run)
	}()
	return entity.BackupResponse{RunID: run.ID, Status: run.Status}, nil
}

// runBackup outlives the request that started it.
func (d *MirrorDaemon) runBackup(run entity.BackupRun) {
	ctx := context.Background()
	ok, msg := d.backup.Run(ctx, run)
	status := entity.RunCompleted
	if !ok {
		status = entity.RunFailed
		d.logger.Errorw("backup run failed", "run", run.ID, "error", msg)
	}
	metrics.ReportJob("backup", string(status))

	final, err := d.store.GetRun(ctx, run.ID)
	if err != nil {
		d.logger.Errorw("failed to reload run", "run", run.ID, "error", err)
		return
	}
	var archive *entity.ExportArchive
	if ok && d.exportAfterBackup {
		a, _, err := d.exporter.Export(ctx, final)
		if err != nil {
			d.logger.Errorw("export after backup failed", "run", run.ID, "error", err)
		} else {
			archive = &a
		}
	}
	if err := d.executor.RunHook(ctx, final, archive); err != nil {
		d.logger.Errorw("post-backup hook failed", "run", run.ID, "error", err)
	}
}

func (d *MirrorDaemon) GetBackup(ctx context.Context, runID string) (entity.BackupRun, error) {
	return d.store.GetRun(ctx, runID)
}

func (d *MirrorDaemon) ListBackups(ctx context.Context, shop string) ([]entity.BackupRun, error) {
	return d.store.ListRuns(ctx, shop)
}

// RemoveBackup deletes a run with its items, restore jobs and export archives.
func (d *MirrorDaemon) RemoveBackup(ctx context.Context, runID string) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	if _, err := d.store.GetRun(ctx, runID); err != nil {
		return err
	}
	if err := d.store.DeleteRun(ctx, runID); err != nil {
		return fmt.Errorf("failed to delete run err: %w", err)
	}
	if err := d.restoreRepo.RemoveRunJobs(ctx, runID); err != nil {
		return fmt.Errorf("failed to delete restore jobs err: %w", err)
	}
	archives, err := d.storage.List(runID)
	if err != nil && !errors.Is(err, repo.ErrNoArchives) {
		return fmt.Errorf("failed to list archives err: %w", err)
	}
	for _, a := range archives {
		d.exporter.Remove(ctx, a)
	}
	d.logger.Infow("backup run removed", "run", runID, "archives", len(archives))
	return nil
}

func (d *MirrorDaemon) completedRun(ctx context.Context, runID string) (entity.BackupRun, error) {
	run, err := d.store.GetRun(ctx, runID)
	if err != nil {
		return entity.BackupRun{}, err
	}
	if run.Status != entity.RunCompleted {
		return entity.BackupRun{}, fmt.Errorf("%w: run %s is %s", ErrRunNotFinished, runID, run.Status)
	}
	return run, nil
}

// Compare runs synchronously; it only reads and may overlap with a running job.
func (d *MirrorDaemon) Compare(ctx context.Context, runID string, itemType entity.ItemType) (entity.CompareResponse, error) {
	run, err := d.completedRun(ctx, runID)
	if err != nil {
		return entity.CompareResponse{}, err
	}
	var results map[entity.ItemType][]entity.CompareResult
	if itemType != "" {
		if !itemType.IsValid() {
			return entity.CompareResponse{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, itemType)
		}
		list, err := d.compare.CompareCategory(ctx, run, itemType)
		if err != nil {
			return entity.CompareResponse{}, err
		}
		results = map[entity.ItemType][]entity.CompareResult{itemType: list}
	} else if results, err = d.compare.CompareAll(ctx, run); err != nil {
		return entity.CompareResponse{}, err
	}
	return entity.CompareResponse{RunID: run.ID, Results: results, Summary: Summarize(results)}, nil
}

func (d *MirrorDaemon) StartRestore(ctx context.Context, runID string, request entity.RestoreRequest) (entity.RestoreResponse, error) {
	if request.Policy == "" {
		request.Policy = entity.PolicyOverwrite
	}
	if !request.Policy.IsValid() {
		return entity.RestoreResponse{}, fmt.Errorf("%w: unknown policy %q", ErrInvalidRequest, request.Policy)
	}
	categories := make([]string, 0, len(request.Categories))
	for _, c := range request.Categories {
		if !c.IsValid() {
			return entity.RestoreResponse{}, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, c)
		}
		categories = append(categories, c.String())
	}
	if _, err := d.completedRun(ctx, runID); err != nil {
		return entity.RestoreResponse{}, err
	}
	if err := d.acquire(); err != nil {
		return entity.RestoreResponse{}, err
	}

	job := entity.RestoreJob{
		ID:         uuid.New().String(),
		RunID:      runID,
		Policy:     request.Policy,
		Categories: strings.Join(categories, ","),
		Status:     entity.JobPending,
		CreatedAt:  entity.NowMillis(),
	}
	if err := d.restoreRepo.UpdateJob(ctx, job); err != nil {
		d.release()
		return entity.RestoreResponse{}, fmt.Errorf("failed to update job err: %w", err)
	}

	d.jobs.Add(1)
	go func() {
		defer d.jobs.Done()
		defer d.release()
		d.runRestore(job, request.ItemIDs)
	}()
	return entity.RestoreResponse{JobID: job.ID, Status: job.Status}, nil
}

func (d *MirrorDaemon) runRestore(job entity.RestoreJob, itemIDs []int64) {
	ctx := context.Background()
	logger := d.logger.With(zap.String("job", job.ID), zap.String("run", job.RunID))

	job.Status = entity.JobRunning
	job.StartedAt = entity.NowMillis()
	if err := d.restoreRepo.UpdateJob(ctx, job); err != nil {
		logger.Errorw("failed to mark restore job running", "error", err)
	}

	finish := func(err error) {
		job.CurrentStep = ""
		job.ProgressMessage = ""
		job.CompletedAt = entity.NowMillis()
		if err != nil {
			job.Status = entity.JobFailed
			job.ErrorMessage = truncate(err.Error(), maxErrorLength)
		} else {
			job.Status = restoreStatus(job)
		}
		if uerr := d.restoreRepo.UpdateJob(ctx, job); uerr != nil {
			logger.Errorw("failed to persist restore job", "error", uerr)
		}
		metrics.ReportJob("restore", string(job.Status))
		logger.Infow("restore finished", "status", job.Status, "success", job.SuccessCount,
			"exists", job.ExistsCount, "failed", job.FailedCount, "skipped", job.SkippedCount)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("restore panicked", "panic", r, "stack", string(debug.Stack()))
			finish(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	engine := NewRestoreEngine(d.store, d.fetcher, RestoreOptions{
		JobID:      job.ID,
		Policy:     job.Policy,
		Categories: job.CategoryList(),
		ItemIDs:    itemIDs,
		OnResult: func(log entity.RestoreLog, index, total int) {
			job.Count(log.Status)
			job.CurrentStep = log.Type.Label()
			job.ProgressMessage = fmt.Sprintf("%s %d/%d: %s", log.Type.Label(), index, total, truncate(log.Title, maxProgressTitle))
			if err := d.restoreRepo.AddLog(ctx, log); err != nil {
				logger.Errorw("failed to store restore log", "item", log.ItemID, "error", err)
			}
			if err := d.restoreRepo.UpdateJob(ctx, job); err != nil {
				logger.Errorw("failed to update restore progress", "error", err)
			}
		},
	}, logger)

	_, err := engine.RestoreAll(ctx, job.RunID)
	finish(err)
}

// restoreStatus is completed without failures, failed when nothing but failures happened and partial otherwise.
func restoreStatus(job entity.RestoreJob) entity.JobStatus {
	switch {
	case job.FailedCount == 0:
		return entity.JobCompleted
	case job.FailedCount == job.Attempted():
		return entity.JobFailed
	}
	return entity.JobPartial
}

func (d *MirrorDaemon) GetRestore(ctx context.Context, jobID string) (entity.RestoreJobResponse, error) {
	job, err := d.restoreRepo.SelectJob(ctx, jobID)
	if err != nil {
		return entity.RestoreJobResponse{}, err
	}
	logs, err := d.restoreRepo.ListLogs(ctx, jobID)
	if err != nil {
		return entity.RestoreJobResponse{}, err
	}
	return entity.RestoreJobResponse{RestoreJob: job, Logs: logs}, nil
}

func (d *MirrorDaemon) ListRestores(ctx context.Context, runID string) ([]entity.RestoreJob, error) {
	if _, err := d.store.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return d.restoreRepo.ListJobs(ctx, runID)
}

func (d *MirrorDaemon) Export(ctx context.Context, runID string) (entity.ExportResponse, error) {
	run, err := d.completedRun(ctx, runID)
	if err != nil {
		return entity.ExportResponse{}, err
	}
	archive, uploaded, err := d.exporter.Export(ctx, run)
	if err != nil {
		return entity.ExportResponse{}, err
	}
	return entity.ExportResponse{Name: archive.Name, Size: archive.Size, Uploaded: uploaded}, nil
}

func (d *MirrorDaemon) ListExports(ctx context.Context, runID string) ([]entity.ExportArchive, error) {
	archives, err := d.storage.List(runID)
	if errors.Is(err, repo.ErrNoArchives) {
		return []entity.ExportArchive{}, nil
	}
	return archives, err
}

// OpenExport returns the archive file; the caller closes it.
func (d *MirrorDaemon) OpenExport(ctx context.Context, name string) (*os.File, entity.ExportArchive, error) {
	archive, err := d.storage.GetArchive(name)
	if err != nil {
		return nil, entity.ExportArchive{}, err
	}
	f, err := d.storage.GetAsStream(name)
	if err != nil {
		return nil, entity.ExportArchive{}, err
	}
	return f, archive, nil
}

func (d *MirrorDaemon) CreateS3PresignedURL(ctx context.Context, request entity.S3PresignedURLRequest) (entity.S3PresignedURLResponse, error) {
	if d.s3Client == nil {
		return entity.S3PresignedURLResponse{}, ErrS3Disabled
	}
	archive, err := d.storage.GetArchive(request.Name)
	if err != nil {
		return entity.S3PresignedURLResponse{}, err
	}
	key := ObjectKey(archive)
	files, err := d.s3Client.ListFiles(ctx, key)
	if err != nil {
		return entity.S3PresignedURLResponse{}, fmt.Errorf("failed to list files from s3 err: %w", err)
	}
	for _, file := range files {
		if file != key {
			continue
		}
		url, err := d.s3Client.CreatePresignedUrl(ctx, file, request.Expiration)
		if err != nil {
			return entity.S3PresignedURLResponse{}, fmt.Errorf("failed to create presigned url err: %w", err)
		}
		return entity.S3PresignedURLResponse{URL: url}, nil
	}
	return entity.S3PresignedURLResponse{}, fmt.Errorf("archive %s not uploaded to s3: %w", request.Name, repo.ErrNotFound)
}
