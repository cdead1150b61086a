package interfaces

import (
	"context"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type IMqClient interface {
	PublishJson(topic string, data interface{}) error
	PublishCommand(topic string, data interface{}) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	IsConnected() bool
	Disconnect(ctx context.Context)
	Connect(ctx context.Context) error
}

type ITopicManager interface {
	GetBaseTopic() string
	GetVehicleFixTopic(namespace string) string
	GetVehicleStateTopic(namespace string) string
	GetVehicleCommandTopic(namespace, command string) string
	GetMissionStatusTopic() string
	GetMissionRunTopic(runID string) string
	ExtractIdFromTopic(topic, template string) (string, error)
	ExtractVehicleNamespace(topic string) (string, error)
}
