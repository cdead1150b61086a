package components

import (
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type ServiceConfig interface {
	interfaces.Config
}

type ServiceConfigImpl struct {
	Name            string        `json:"name"`
	Version         string        `json:"version"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Interactive     bool          `json:"interactive"`
	AutoStart       string        `json:"auto_start"`
}

func NewServiceConfig() ServiceConfigImpl {
	config := ServiceConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (S *ServiceConfigImpl) Load() {
	S.Name = shared.GetEnv("SERVICE_NAME")
	S.Version = shared.GetEnv("SERVICE_VERSION")
	S.ShutdownTimeout = shared.GetEnvAsDuration("SERVICE_SHUTDOWN_TIMEOUT")
	S.Interactive = shared.GetEnvAsBool("SERVICE_INTERACTIVE", true)
	S.AutoStart = shared.GetEnv("SERVICE_AUTO_START")
}

func (S *ServiceConfigImpl) SetDefaults() {
	if S.Name == "" {
		S.Name = "drone-follow"
	}
	if S.Version == "" {
		S.Version = "1.0.0"
	}
	if S.ShutdownTimeout <= 0 {
		S.ShutdownTimeout = 10 * time.Second
	}
}

func (S *ServiceConfigImpl) Validate() error {
	if S.Name == "" {
		return shared.NewConfigError("service", "SERVICE_NAME", nil, "is required")
	}

	switch S.AutoStart {
	case "", "follow", "mission", "manual", "release":
	default:
		return shared.NewConfigError("service", "SERVICE_AUTO_START", S.AutoStart, "must be one of follow, mission, manual, release")
	}

	if !S.Interactive && S.AutoStart == "" {
		return shared.NewConfigError("service", "SERVICE_AUTO_START", nil, "is required when SERVICE_INTERACTIVE is false")
	}

	return nil
}

var _ ServiceConfig = (*ServiceConfigImpl)(nil)
