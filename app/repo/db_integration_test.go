package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/TarasYkv/shop-mirror-daemon/app/db"
	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
)

func newTestDB(t *testing.T) *db.Db {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "database.db")

	conn, err := db.NewConnection(dbPath)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func TestUpdateJob_Integration(t *testing.T) {
	testCases := []struct {
		name        string
		job         entity.RestoreJob
		expectedErr error
	}{
		{
			name: "insert",
			job: entity.RestoreJob{
				ID:         "job-1",
				RunID:      "run-1",
				Policy:     entity.PolicyOverwrite,
				Categories: "product,page",
				Status:     entity.JobPending,
				CreatedAt:  1,
			},
			expectedErr: nil,
		},
		{
			name: "update keeps categories",
			job: entity.RestoreJob{
				ID:           "job-1",
				RunID:        "run-1",
				Policy:       entity.PolicyOverwrite,
				Status:       entity.JobCompleted,
				SuccessCount: 3,
			},
			expectedErr: nil,
		},
	}

	repo := NewRestoreRepo(newTestDB(t))

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.UpdateJob(context.Background(), tc.job)
			if !errors.Is(err, tc.expectedErr) {
				t.Fatalf("update job err: expected: %v, got: %v", tc.expectedErr, err)
			}
		})
	}

	job, err := repo.SelectJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("SelectJob: %v", err)
	}
	if job.Status != entity.JobCompleted || job.SuccessCount != 3 {
		t.Fatalf("unexpected job after update: %+v", job)
	}
	if job.Categories != "product,page" {
		t.Fatalf("expected categories to survive an empty update, got %q", job.Categories)
	}
	if job.CreatedAt != 1 {
		t.Fatalf("expected created_at to be kept, got %d", job.CreatedAt)
	}
}

func TestSelectJob_Integration(t *testing.T) {
	repo := NewRestoreRepo(newTestDB(t))
	seed := entity.RestoreJob{
		ID:        "job-1",
		RunID:     "run-1",
		Policy:    entity.PolicyOnlyMissing,
		Status:    entity.JobPartial,
		CreatedAt: 42,
	}
	if err := repo.UpdateJob(context.Background(), seed); err != nil {
		t.Fatalf("seed UpdateJob failed: %v", err)
	}

	testCases := []struct {
		name        string
		jobID       string
		job         entity.RestoreJob
		expectedErr error
	}{
		{
			name:        "success",
			jobID:       "job-1",
			job:         seed,
			expectedErr: nil,
		},
		{
			name:        "job not found",
			jobID:       "job-2",
			job:         entity.RestoreJob{},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			job, err := repo.SelectJob(context.Background(), tc.jobID)
			if !errors.Is(err, tc.expectedErr) {
				t.Fatalf("expected %v, got: %v", tc.expectedErr, err)
			}
			if job != tc.job {
				t.Fatalf("expected job: %v, got: %v", tc.job, job)
			}
		})
	}
}

func TestRestoreLogs_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewRestoreRepo(newTestDB(t))

	logs := []entity.RestoreLog{
		{JobID: "job-1", RunID: "run-1", ItemID: 1, Type: entity.ItemProduct, ExternalID: "1", Status: entity.RestoreSuccess, NewExternalID: "900"},
		{JobID: "job-1", RunID: "run-1", ItemID: 2, Type: entity.ItemOrder, ExternalID: "2", Status: entity.RestoreSkipped, Message: "orders cannot be recreated"},
		{JobID: "job-2", RunID: "run-2", ItemID: 3, Type: entity.ItemPage, ExternalID: "3", Status: entity.RestoreExists},
	}
	for _, l := range logs {
		if err := repo.AddLog(ctx, l); err != nil {
			t.Fatalf("AddLog: %v", err)
		}
	}
	if err := repo.UpdateJob(ctx, entity.RestoreJob{ID: "job-1", RunID: "run-1", Policy: entity.PolicyOverwrite, Status: entity.JobCompleted}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	testCases := []struct {
		name          string
		jobID         string
		expectedCount int
	}{
		{name: "two logs", jobID: "job-1", expectedCount: 2},
		{name: "one log", jobID: "job-2", expectedCount: 1},
		{name: "no logs", jobID: "job-3", expectedCount: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListLogs(ctx, tc.jobID)
			if err != nil {
				t.Fatalf("ListLogs: %v", err)
			}
			if len(got) != tc.expectedCount {
				t.Fatalf("expected %d logs, got %d", tc.expectedCount, len(got))
			}
		})
	}

	got, _ := repo.ListLogs(ctx, "job-1")
	if got[0].NewExternalID != "900" || got[1].Status != entity.RestoreSkipped || got[0].CreatedAt == 0 {
		t.Fatalf("unexpected logs: %+v", got)
	}

	if err := repo.RemoveRunJobs(ctx, "run-1"); err != nil {
		t.Fatalf("RemoveRunJobs: %v", err)
	}
	if got, _ := repo.ListLogs(ctx, "job-1"); len(got) != 0 {
		t.Fatalf("expected logs of run-1 removed, got %d", len(got))
	}
	if _, err := repo.SelectJob(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected job removed, got %v", err)
	}
	if got, _ := repo.ListLogs(ctx, "job-2"); len(got) != 1 {
		t.Fatalf("expected run-2 logs untouched")
	}
}
