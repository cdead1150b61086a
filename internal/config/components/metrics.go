package components

import (
	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type MetricsConfig interface {
	interfaces.Config
}

type MetricsConfigImpl struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	Path    string `json:"path"`
}

func NewMetricsConfig() MetricsConfigImpl {
	config := MetricsConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (M *MetricsConfigImpl) Load() {
	M.Enabled = shared.GetEnvAsBool("METRICS_ENABLED", false)
	M.Address = shared.GetEnv("METRICS_ADDRESS")
	M.Path = shared.GetEnv("METRICS_PATH")
}

func (M *MetricsConfigImpl) SetDefaults() {
	if M.Address == "" {
		M.Address = ":9102"
	}
	if M.Path == "" {
		M.Path = "/metrics"
	}
}

func (M *MetricsConfigImpl) Validate() error {
	if M.Enabled && M.Address == "" {
		return shared.NewConfigError("metrics", "METRICS_ADDRESS", nil, "is required when METRICS_ENABLED is set")
	}
	return nil
}

var _ MetricsConfig = (*MetricsConfigImpl)(nil)
