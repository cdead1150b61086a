package models

import (
	"time"

	"gorm.io/gorm"
)

type MissionRun struct {
	gorm.Model
	RunID           string            `gorm:"uniqueIndex;not null" json:"run_id"`
	LeaderName      string            `gorm:"not null" json:"leader_name"`
	FollowerName    string            `gorm:"not null" json:"follower_name"`
	StartedAt       time.Time         `gorm:"not null" json:"started_at"`
	EndedAt         *time.Time        `json:"ended_at,omitempty"`
	CurrentPhase    string            `gorm:"type:varchar(32);not null" json:"current_phase"`
	AbortReason     string            `json:"abort_reason,omitempty"`
	TargetLatitude  *float64          `json:"target_latitude,omitempty"`
	TargetLongitude *float64          `json:"target_longitude,omitempty"`
	Transitions     []PhaseTransition `gorm:"foreignKey:MissionRunID" json:"transitions,omitempty"`
}

type PhaseTransition struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MissionRunID uint      `gorm:"index;not null" json:"mission_run_id"`
	FromPhase    string    `gorm:"type:varchar(32);not null" json:"from_phase"`
	ToPhase      string    `gorm:"type:varchar(32);not null" json:"to_phase"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `gorm:"not null" json:"at"`
}

// MissionStatusDto is the retained status published for each run.
type MissionStatusDto struct {
	RunID    string    `json:"run_id"`
	Phase    string    `json:"phase"`
	Previous string    `json:"previous"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

func (m *MissionRun) IsFinished() bool {
	return m.EndedAt != nil
}

const (
	MissionPhaseDone    = "done"
	MissionPhaseAborted = "aborted"
)

// IsTerminalPhase reports whether a persisted phase name ends a run.
func IsTerminalPhase(phase string) bool {
	return phase == MissionPhaseDone || phase == MissionPhaseAborted
}
