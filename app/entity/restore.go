package entity

import "strings"

type RestorePolicy string

const (
	PolicyOverwrite   RestorePolicy = "overwrite"
	PolicyOnlyMissing RestorePolicy = "only_missing"
)

func (p RestorePolicy) IsValid() bool {
	return p == PolicyOverwrite || p == PolicyOnlyMissing
}

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobPartial   JobStatus = "partial"
	JobFailed    JobStatus = "failed"
)

type RestoreStatus string

const (
	RestoreSuccess RestoreStatus = "success"
	RestoreExists  RestoreStatus = "exists"
	RestoreFailed  RestoreStatus = "failed"
	RestoreSkipped RestoreStatus = "skipped"
)

// RestoreJob is one restore invocation against one backup run.
type RestoreJob struct {
	ID              string        `json:"id" db:"id"`
	RunID           string        `json:"run_id" db:"run_id"`
	Policy          RestorePolicy `json:"policy" db:"policy"`
	Categories      string        `json:"categories" db:"categories"`
	Status          JobStatus     `json:"status" db:"status"`
	SuccessCount    int           `json:"success_count" db:"success_count"`
	ExistsCount     int           `json:"exists_count" db:"exists_count"`
	FailedCount     int           `json:"failed_count" db:"failed_count"`
	SkippedCount    int           `json:"skipped_count" db:"skipped_count"`
	CurrentStep     string        `json:"current_step" db:"current_step"`
	ProgressMessage string        `json:"progress_message" db:"progress_message"`
	ErrorMessage    string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       int64         `json:"created_at" db:"created_at"`
	StartedAt       int64         `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     int64         `json:"completed_at,omitempty" db:"completed_at"`
}

// CategoryList splits the comma separated categories column. An empty column means every category.
func (j RestoreJob) CategoryList() []ItemType {
	if strings.TrimSpace(j.Categories) == "" {
		return nil
	}
	var out []ItemType
	for _, c := range strings.Split(j.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, ItemType(c))
		}
	}
	return out
}

func (j *RestoreJob) Count(status RestoreStatus) {
	switch status {
	case RestoreSuccess:
		j.SuccessCount++
	case RestoreExists:
		j.ExistsCount++
	case RestoreFailed:
		j.FailedCount++
	case RestoreSkipped:
		j.SkippedCount++
	}
}

func (j RestoreJob) Attempted() int {
	return j.SuccessCount + j.ExistsCount + j.FailedCount + j.SkippedCount
}

// RestoreLog is the outcome of one restore attempt. Written once.
type RestoreLog struct {
	ID            int64         `json:"id" db:"id"`
	JobID         string        `json:"job_id" db:"job_id"`
	RunID         string        `json:"run_id" db:"run_id"`
	ItemID        int64         `json:"item_id" db:"item_id"`
	Type          ItemType      `json:"type" db:"item_type"`
	ExternalID    string        `json:"external_id" db:"external_id"`
	Title         string        `json:"title" db:"title"`
	Status        RestoreStatus `json:"status" db:"status"`
	NewExternalID string        `json:"new_external_id,omitempty" db:"new_external_id"`
	Message       string        `json:"message,omitempty" db:"message"`
	CreatedAt     int64         `json:"created_at" db:"created_at"`
}
