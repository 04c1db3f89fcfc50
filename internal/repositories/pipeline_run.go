package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cvtailor/internal/models"
)

type PipelineRunRepository interface {
	Create(run *models.PipelineRun) error
	FindByID(id uuid.UUID) (*models.PipelineRun, error)
	FindLatestByCompany(company string) (*models.PipelineRun, error)
	FindRunning(limit int) ([]models.PipelineRun, error)
	MarkCompleted(id uuid.UUID, overallScore float64, gradeBand string) error
	MarkFailed(id uuid.UUID, stage, errorMsg string) error
}

type pipelineRunRepository struct {
	db *gorm.DB
}

func NewPipelineRunRepository(db *gorm.DB) PipelineRunRepository {
	return &pipelineRunRepository{db: db}
}

// Create implements PipelineRunRepository.
func (r *pipelineRunRepository) Create(run *models.PipelineRun) error {
	if err := r.db.Create(run).Error; err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}
	return nil
}

// FindByID implements PipelineRunRepository.
func (r *pipelineRunRepository) FindByID(id uuid.UUID) (*models.PipelineRun, error) {
	var run models.PipelineRun
	if err := r.db.Where("id = ?", id).First(&run).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("pipeline run not found")
		}
		return nil, fmt.Errorf("failed to find pipeline run: %w", err)
	}
	return &run, nil
}

// FindLatestByCompany implements PipelineRunRepository.
func (r *pipelineRunRepository) FindLatestByCompany(company string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := r.db.
		Where("company = ?", company).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no pipeline runs for company %s", company)
		}
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}
	return &run, nil
}

// FindRunning implements PipelineRunRepository. Used by the worker's
// recovery poller to detect runs orphaned by a restart.
func (r *pipelineRunRepository) FindRunning(limit int) ([]models.PipelineRun, error) {
	var runs []models.PipelineRun
	err := r.db.
		Where("status = ?", models.RunRunning).
		Order("started_at ASC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find running jobs: %w", err)
	}
	return runs, nil
}

// MarkCompleted implements PipelineRunRepository.
func (r *pipelineRunRepository) MarkCompleted(id uuid.UUID, overallScore float64, gradeBand string) error {
	now := time.Now()
	result := r.db.Model(&models.PipelineRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.RunCompleted,
			"overall_score": overallScore,
			"grade_band":    gradeBand,
			"completed_at":  now,
			"updated_at":    now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark run completed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("pipeline run not found")
	}
	return nil
}

// MarkFailed implements PipelineRunRepository. Records which stage failed
// and why so the caller never sees a generic error.
func (r *pipelineRunRepository) MarkFailed(id uuid.UUID, stage, errorMsg string) error {
	now := time.Now()
	result := r.db.Model(&models.PipelineRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.RunFailed,
			"failed_stage":  stage,
			"error_message": errorMsg,
			"completed_at":  now,
			"updated_at":    now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark run failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("pipeline run not found")
	}
	return nil
}
