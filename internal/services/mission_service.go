package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"drone-follow/internal/interfaces"
	"drone-follow/internal/mission"
	"drone-follow/internal/models"
)

// MissionStore persists runs and their phase transitions.
type MissionStore interface {
	Create(ctx context.Context, run *models.MissionRun) error
	RecordTransition(ctx context.Context, runID string, transition *models.PhaseTransition) error
	SetTarget(ctx context.Context, runID string, fix models.TargetFix) error
}

// MissionService journals mission phase changes to the store and publishes
// them as retained status messages. Either sink may be nil.
type MissionService struct {
	store        MissionStore
	client       interfaces.IMqClient
	topicManager interfaces.ITopicManager
	logger       zerolog.Logger
	newID        func() string

	mu    sync.Mutex
	runID string
}

func NewMissionService(store MissionStore, client interfaces.IMqClient, topicManager interfaces.ITopicManager, logger zerolog.Logger) *MissionService {
	return &MissionService{
		store:        store,
		client:       client,
		topicManager: topicManager,
		logger:       logger,
		newID:        uuid.NewString,
	}
}

// RunID returns the identifier of the current or last run.
func (s *MissionService) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

func (s *MissionService) PhaseChanged(ctx context.Context, t mission.Transition) {
	runID := s.runFor(ctx, t)

	if s.store != nil {
		transition := &models.PhaseTransition{
			FromPhase: t.From.String(),
			ToPhase:   t.To.String(),
			Reason:    t.Reason,
			At:        t.At,
		}
		if err := s.store.RecordTransition(ctx, runID, transition); err != nil {
			s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to record phase transition")
		}
		if t.Target != nil {
			fix := models.TargetFix{Latitude: t.Target.Latitude, Longitude: t.Target.Longitude}
			if err := s.store.SetTarget(ctx, runID, fix); err != nil {
				s.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to record target fix")
			}
		}
	}

	s.publish(runID, t)
}

// runFor starts a new run when a mission leaves idle.
func (s *MissionService) runFor(ctx context.Context, t mission.Transition) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.From != mission.PhaseIdle && s.runID != "" {
		return s.runID
	}

	s.runID = s.newID()
	s.logger.Info().Str("run_id", s.runID).Msg("Mission run started")

	if s.store != nil {
		run := &models.MissionRun{
			RunID:        s.runID,
			LeaderName:   t.Leader,
			FollowerName: t.Follower,
			StartedAt:    t.At,
			CurrentPhase: t.From.String(),
		}
		if err := s.store.Create(ctx, run); err != nil {
			s.logger.Error().Err(err).Str("run_id", s.runID).Msg("Failed to create mission run")
		}
	}
	return s.runID
}

func (s *MissionService) publish(runID string, t mission.Transition) {
	if s.client == nil || s.topicManager == nil || !s.client.IsConnected() {
		return
	}

	status := models.MissionStatusDto{
		RunID:    runID,
		Phase:    t.To.String(),
		Previous: t.From.String(),
		Reason:   t.Reason,
		At:       t.At,
	}

	for _, topic := range []string{s.topicManager.GetMissionStatusTopic(), s.topicManager.GetMissionRunTopic(runID)} {
		if err := s.client.PublishJson(topic, status); err != nil {
			s.logger.Error().Err(err).
				Str("topic", topic).
				Msg("Failed to publish mission status to MQTT")
		}
	}
}

var _ mission.Observer = (*MissionService)(nil)
