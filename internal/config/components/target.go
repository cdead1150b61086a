package components

import (
	"strings"
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type TargetConfig interface {
	interfaces.Config
}

type TargetConfigImpl struct {
	BindAddress string        `json:"bind_address"`
	Timeout     time.Duration `json:"timeout"`
}

func NewTargetConfig() TargetConfigImpl {
	config := TargetConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (T *TargetConfigImpl) Load() {
	T.BindAddress = shared.GetEnv("TARGET_BIND_ADDRESS")
	T.Timeout = shared.GetEnvAsDuration("TARGET_TIMEOUT")
}

func (T *TargetConfigImpl) SetDefaults() {
	if T.BindAddress == "" {
		T.BindAddress = "tcp://*:5556"
	}
	if T.Timeout <= 0 {
		T.Timeout = 300 * time.Second
	}
}

func (T *TargetConfigImpl) Validate() error {
	if !strings.HasPrefix(T.BindAddress, "tcp://") && !strings.HasPrefix(T.BindAddress, "ipc://") {
		return shared.NewConfigError("target", "TARGET_BIND_ADDRESS", T.BindAddress, "must be a tcp:// or ipc:// endpoint")
	}
	return nil
}

var _ TargetConfig = (*TargetConfigImpl)(nil)
