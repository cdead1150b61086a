package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"drone-follow/internal/models"
)

var ErrRunNotFound = errors.New("mission run not found")

type MissionRepository struct {
	db *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{db: db}
}

func (r *MissionRepository) Create(ctx context.Context, run *models.MissionRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create mission run %s: %w", run.RunID, err)
	}
	return nil
}

// RecordTransition appends a transition to a run and moves the run to the
// transition's phase. Terminal phases close the run.
func (r *MissionRepository) RecordTransition(ctx context.Context, runID string, transition *models.PhaseTransition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run models.MissionRun
		err := tx.Where("run_id = ?", runID).First(&run).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		} else if err != nil {
			return err
		}

		transition.MissionRunID = run.ID
		if err := tx.Create(transition).Error; err != nil {
			return err
		}

		run.CurrentPhase = transition.ToPhase
		if models.IsTerminalPhase(transition.ToPhase) {
			endedAt := transition.At
			run.EndedAt = &endedAt
		}
		if transition.ToPhase == models.MissionPhaseAborted {
			run.AbortReason = transition.Reason
		}

		return tx.Save(&run).Error
	})
}

func (r *MissionRepository) SetTarget(ctx context.Context, runID string, fix models.TargetFix) error {
	result := r.db.WithContext(ctx).Model(&models.MissionRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]interface{}{
			"target_latitude":  fix.Latitude,
			"target_longitude": fix.Longitude,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to set target for run %s: %w", runID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (r *MissionRepository) FindByRunID(ctx context.Context, runID string) (*models.MissionRun, error) {
	var run models.MissionRun
	err := r.db.WithContext(ctx).
		Preload("Transitions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("run_id = ?", runID).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to find mission run %s: %w", runID, err)
	}
	return &run, nil
}

func (r *MissionRepository) FindRecent(ctx context.Context, limit int) ([]models.MissionRun, error) {
	var runs []models.MissionRun
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent mission runs: %w", err)
	}
	return runs, nil
}

// CloseUnfinished marks runs left open by a previous process as aborted.
func (r *MissionRepository) CloseUnfinished(ctx context.Context, reason string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.MissionRun{}).
		Where("ended_at IS NULL").
		Updates(map[string]interface{}{
			"ended_at":      at,
			"current_phase": models.MissionPhaseAborted,
			"abort_reason":  reason,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to close unfinished mission runs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
