package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"drone-follow/internal/config/components"
	"drone-follow/internal/interfaces"
)

type Client struct {
	client    mqtt.Client
	config    components.MQTTConfigImpl
	logger    zerolog.Logger
	connected atomic.Bool
}

func NewClient(cfg components.MQTTConfigImpl, logger zerolog.Logger) *Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(cfg.GetUrl())
	opts.SetClientID(fmt.Sprintf("%s-%d", cfg.ClientID, rand.Intn(10000)))

	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(cfg.AutoReconnect)
	opts.SetMaxReconnectInterval(cfg.MaxReconnectInterval)
	opts.SetCleanSession(cfg.CleanSession)

	c := &Client{
		config: cfg,
		logger: logger,
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	return c
}

func (c *Client) Connect(ctx context.Context) error {
	token := c.client.Connect()

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("error connecting to MQTT broker %s: %w", c.config.GetUrl(), token.Error())
		}
		c.connected.Store(true)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection to MQTT broker timed out: %w", ctx.Err())
	}
}

func (c *Client) Disconnect(ctx context.Context) {
	if !c.IsConnected() {
		c.logger.Debug().Msg("MQTT client is not connected, nothing to disconnect")
		return
	}

	c.client.Disconnect(250)
	c.connected.Store(false)

	select {
	case <-ctx.Done():
		c.logger.Warn().Msg("MQTT client disconnect timed out")
	default:
		c.logger.Info().Msg("MQTT client disconnected successfully")
	}
}

func (c *Client) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if !c.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected, cannot subscribe to topic %s", topic)
	}

	token := c.client.Subscribe(topic, qos, handler)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("error subscribing to topic %s: %w", topic, token.Error())
	}

	c.logger.Info().Str("topic", topic).Msg("Added topic subscription")

	return nil
}

func (c *Client) Unsubscribe(topics ...string) error {
	if !c.client.IsConnected() {
		return nil
	}

	token := c.client.Unsubscribe(topics...)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("error unsubscribing from %v: %w", topics, token.Error())
	}
	return nil
}

func (c *Client) PublishWithOptions(topic string, payload []byte, options *MessageOptions) error {
	if !c.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}

	token := c.client.Publish(topic, options.Qos, options.Retained, payload)
	if !token.WaitTimeout(options.Timeout) {
		return fmt.Errorf("publish to topic %s timed out after %s", topic, options.Timeout)
	}

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	c.logger.Debug().
		Str("topic", topic).
		Int("payload_size", len(payload)).
		Bool("retained", options.Retained).
		Msg("published message")

	return nil
}

func (c *Client) publishEnvelope(topic string, data interface{}, options *MessageOptions) error {
	payload, err := json.Marshal(Message{Data: data, Source: options.Source})
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return c.PublishWithOptions(topic, payload, options)
}

func (c *Client) PublishJson(topic string, data interface{}) error {
	return c.publishEnvelope(topic, data, StatusMessageOptions())
}

func (c *Client) PublishCommand(topic string, data interface{}) error {
	return c.publishEnvelope(topic, data, CommandMessageOptions())
}

func (c *Client) IsConnected() bool {
	return c.connected.Load() && c.client.IsConnected()
}

func (c *Client) onConnect(client mqtt.Client) {
	c.connected.Store(true)

	c.logger.Info().
		Str("broker", c.config.GetUrl()).
		Msg("Successfully connected to broker")
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.connected.Store(false)
	c.logger.Warn().Err(err).Msg("lost connection to broker")
}

var _ interfaces.IMqClient = (*Client)(nil)
