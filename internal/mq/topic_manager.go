package mq

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"drone-follow/internal/interfaces"
)

type TopicManager struct {
	BaseTopic string
	logger    zerolog.Logger
}

func NewTopicManager(baseTopic string, logger zerolog.Logger) *TopicManager {
	return &TopicManager{
		BaseTopic: strings.TrimSuffix(baseTopic, "/"),
		logger:    logger,
	}
}

const (
	VehicleFixTopicTemplate     = "%s/v1/vehicles/%s/fix"
	VehicleStateTopicTemplate   = "%s/v1/vehicles/%s/state"
	VehicleCommandTopicTemplate = "%s/v1/vehicles/%s/cmd/%s"
	MissionStatusTopicTemplate  = "%s/v1/missions/status"
	MissionRunTopicTemplate     = "%s/v1/missions/%s"
)

func (m *TopicManager) GetVehicleFixTopic(namespace string) string {
	return fmt.Sprintf(VehicleFixTopicTemplate, m.BaseTopic, namespace)
}

func (m *TopicManager) GetVehicleStateTopic(namespace string) string {
	return fmt.Sprintf(VehicleStateTopicTemplate, m.BaseTopic, namespace)
}

func (m *TopicManager) GetVehicleCommandTopic(namespace, command string) string {
	return fmt.Sprintf(VehicleCommandTopicTemplate, m.BaseTopic, namespace, command)
}

func (m *TopicManager) GetMissionStatusTopic() string {
	return fmt.Sprintf(MissionStatusTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetMissionRunTopic(runID string) string {
	return fmt.Sprintf(MissionRunTopicTemplate, m.BaseTopic, runID)
}

// buildTopicRegex turns a template into a pattern whose first group is the
// first placeholder after the base topic.
func (m *TopicManager) buildTopicRegex(template string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(strings.Replace(template, "%s", m.BaseTopic, 1))
	pattern = strings.ReplaceAll(pattern, "%s", "([^/]+)")
	return regexp.MustCompile("^" + pattern + "$")
}

func (m *TopicManager) ExtractIdFromTopic(topic, template string) (string, error) {
	matches := m.buildTopicRegex(template).FindStringSubmatch(topic)

	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract ID from topic: %s", topic)
	}

	return matches[1], nil
}

func (m *TopicManager) ExtractVehicleNamespace(topic string) (string, error) {
	for _, template := range []string{VehicleFixTopicTemplate, VehicleStateTopicTemplate} {
		if ns, err := m.ExtractIdFromTopic(topic, template); err == nil {
			return ns, nil
		}
	}
	return "", fmt.Errorf("topic %s is not a vehicle telemetry topic", topic)
}

func (m *TopicManager) GetBaseTopic() string {
	return m.BaseTopic
}

var _ interfaces.ITopicManager = (*TopicManager)(nil)
