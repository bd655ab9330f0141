package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job stages in pipeline order.
const (
	StageCreated    = "created"
	StageExtracted  = "extracted"
	StageSummarized = "summarized"
	StagePersisted  = "persisted"
	StageRendered   = "rendered"
)

// Names of the stages a job can fail in.
const (
	FailedStageExtract   = "extract"
	FailedStageSummarize = "summarize"
	FailedStagePersist   = "persist"
	FailedStageRender    = "render"
)

const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// Job tracks one submitted PDF through the pipeline. Rows are never deleted.
type Job struct {
	ID               uuid.UUID `gorm:"primaryKey;type:VARCHAR(36);"`
	Stage            string    `gorm:"type:VARCHAR(32);not null"`
	Status           string    `gorm:"type:VARCHAR(32);not null;index:jobs_status_idx"`
	FailedStage      *string   `gorm:"type:VARCHAR(32)"`
	Error            *string
	DocumentKind     *string `gorm:"type:VARCHAR(32)"`
	DocumentLocation *string
	ValidationError  *string
	StartPage        int     `gorm:"not null"`
	EndPage          int     `gorm:"not null"`
	Filename         string  `gorm:"not null;default:''"`
	RequestID        *string `gorm:"type:VARCHAR(64)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type JobList []Job

func NewJob(id uuid.UUID, startPage, endPage int, filename string) *Job {
	return &Job{
		ID:        id,
		Stage:     StageCreated,
		Status:    JobStatusRunning,
		StartPage: startPage,
		EndPage:   endPage,
		Filename:  filename,
	}
}

func (j Job) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
