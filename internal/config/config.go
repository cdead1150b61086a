package config

import (
	"fmt"

	"github.com/joho/godotenv"

	"drone-follow/internal/config/components"
	"drone-follow/internal/interfaces"
)

type Config struct {
	Vehicle  components.VehicleConfigImpl  `json:"vehicle"`
	Follow   components.FollowConfigImpl   `json:"follow"`
	Mission  components.MissionConfigImpl  `json:"mission"`
	Target   components.TargetConfigImpl   `json:"target"`
	Manual   components.ManualConfigImpl   `json:"manual"`
	MQTT     components.MQTTConfigImpl     `json:"mqtt"`
	Postgres components.PostgresConfigImpl `json:"postgres"`
	InfluxDB components.InfluxConfigImpl   `json:"influxdb"`
	Metrics  components.MetricsConfigImpl  `json:"metrics"`
	Logger   components.LoggerConfigImpl   `json:"logger"`
	Service  components.ServiceConfigImpl  `json:"service"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Vehicle:  components.NewVehicleConfig(),
		Follow:   components.NewFollowConfig(),
		Mission:  components.NewMissionConfig(),
		Target:   components.NewTargetConfig(),
		Manual:   components.NewManualConfig(),
		MQTT:     components.NewMQTTConfig(),
		Postgres: components.NewPostgresConfig(),
		InfluxDB: components.NewInfluxConfig(),
		Metrics:  components.NewMetricsConfig(),
		Logger:   components.NewLoggerConfig(),
		Service:  components.NewServiceConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	for _, component := range c.components() {
		if err := component.Validate(); err != nil {
			return err
		}
	}

	if c.needsBroker() && !c.MQTT.Enabled {
		return fmt.Errorf("bridge backend requires MQTT_ENABLED")
	}

	return nil
}

func (c *Config) components() []interfaces.Config {
	components := []interfaces.Config{
		&c.Vehicle, &c.Follow, &c.Mission, &c.Target, &c.Manual,
		&c.Metrics, &c.Logger, &c.Service, &c.InfluxDB,
	}
	if c.MQTT.Enabled {
		components = append(components, &c.MQTT)
	}
	if c.Postgres.Enabled {
		components = append(components, &c.Postgres)
	}
	return components
}

func (c *Config) needsBroker() bool {
	return c.Vehicle.Leader.Backend == components.BackendBridge ||
		c.Vehicle.Follower.Backend == components.BackendBridge
}
