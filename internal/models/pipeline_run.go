package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// PipelineRun is the coordination record for one tailoring run. At most one
// run per (company, fingerprint) may be in the running state at a time.
type PipelineRun struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Company      string     `gorm:"type:text;not null;index" json:"company"`
	Fingerprint  string     `gorm:"type:text;not null;index" json:"content_fingerprint"`
	CVDocumentID uuid.UUID  `gorm:"type:uuid;not null" json:"cv_document_id"`
	JDDocumentID uuid.UUID  `gorm:"type:uuid;not null" json:"jd_document_id"`
	Status       RunStatus  `gorm:"not null;default:'running'" json:"status"`
	Iteration    int        `gorm:"not null;default:1" json:"iteration"`
	OverallScore *float64   `gorm:"type:decimal(5,2)" json:"overall_score,omitempty"`
	GradeBand    *string    `gorm:"type:text" json:"grade_band,omitempty"`
	FailedStage  *string    `gorm:"type:text" json:"failed_stage,omitempty"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"started_at"`
	CompletedAt  *time.Time `gorm:"type:timestamp" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
