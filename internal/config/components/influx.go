package components

import (
	"strings"
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type InfluxConfig interface {
	interfaces.Config
	GetUrl() string
}

type InfluxConfigImpl struct {
	Enabled       bool          `json:"enabled"`
	URL           string        `json:"url"`
	Token         string        `json:"token"`
	Organization  string        `json:"organization"`
	Bucket        string        `json:"bucket"`
	BatchSize     int           `json:"batch_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

func NewInfluxConfig() InfluxConfigImpl {
	config := InfluxConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (I *InfluxConfigImpl) Load() {
	I.Enabled = shared.GetEnvAsBool("INFLUXDB_ENABLED", false)
	I.URL = shared.GetEnv("INFLUXDB_URL")
	I.Token = shared.GetEnv("INFLUXDB_TOKEN")
	I.Organization = shared.GetEnv("INFLUXDB_ORG")
	I.Bucket = shared.GetEnv("INFLUXDB_BUCKET")
	I.BatchSize = shared.GetEnvAsInt("INFLUXDB_BATCH_SIZE")
	I.FlushInterval = shared.GetEnvAsDuration("INFLUXDB_FLUSH_INTERVAL")
}

func (I *InfluxConfigImpl) SetDefaults() {
	if I.URL == "" {
		I.URL = "http://localhost:8086"
	}
	if I.Organization == "" {
		I.Organization = "drone_follow"
	}
	if I.Bucket == "" {
		I.Bucket = "follow"
	}
	if I.BatchSize <= 0 {
		I.BatchSize = 100
	}
	if I.FlushInterval <= 0 {
		I.FlushInterval = 10 * time.Second
	}
}

// Validate only checks the token when telemetry is enabled.
func (I *InfluxConfigImpl) Validate() error {
	if !strings.HasPrefix(I.URL, "http://") && !strings.HasPrefix(I.URL, "https://") {
		return shared.NewConfigError("influx", "INFLUXDB_URL", I.URL, "must start with http:// or https://")
	}
	if I.Enabled && I.Token == "" {
		return shared.NewConfigError("influx", "INFLUXDB_TOKEN", nil, "is required when INFLUXDB_ENABLED is set")
	}
	if I.Organization == "" {
		return shared.NewConfigError("influx", "INFLUXDB_ORG", nil, "is required")
	}
	if I.Bucket == "" {
		return shared.NewConfigError("influx", "INFLUXDB_BUCKET", nil, "is required")
	}
	if I.FlushInterval < time.Second || I.FlushInterval > time.Minute {
		return shared.NewConfigError("influx", "INFLUXDB_FLUSH_INTERVAL", I.FlushInterval, "must be between 1s and 1m")
	}

	return nil
}

func (I *InfluxConfigImpl) GetUrl() string {
	return I.URL
}

var _ InfluxConfig = (*InfluxConfigImpl)(nil)
