package components

import (
	"strings"
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type VehicleConfig interface {
	interfaces.Config
}

type VehicleEndpoint struct {
	Backend      string `json:"backend"`
	Address      string `json:"address"`
	Name         string `json:"name"`
	Namespace    string `json:"namespace"`
	ThrottleMode string `json:"throttle_mode"`
}

type VehicleConfigImpl struct {
	Leader          VehicleEndpoint `json:"leader"`
	Follower        VehicleEndpoint `json:"follower"`
	ConnectAttempts int             `json:"connect_attempts"`
	ConnectDelay    time.Duration   `json:"connect_delay"`
	ReleaseTimeout  time.Duration   `json:"release_timeout"`
	CommandTimeout  time.Duration   `json:"command_timeout"`
}

const (
	BackendMavlink = "mavlink"
	BackendBridge  = "bridge"
	BackendSim     = "sim"

	// Throttle conventions a backend expects on the wire. Motion commands
	// are always signed with 0 as neutral.
	ThrottleSigned   = "signed"
	ThrottleUnsigned = "unsigned"
)

func NewVehicleConfig() VehicleConfigImpl {
	config := VehicleConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func loadEndpoint(prefix string) VehicleEndpoint {
	return VehicleEndpoint{
		Backend:      strings.ToLower(shared.GetEnv(prefix + "_BACKEND")),
		Address:      shared.GetEnv(prefix + "_ADDRESS"),
		Name:         shared.GetEnv(prefix + "_NAME"),
		Namespace:    shared.GetEnv(prefix + "_NAMESPACE"),
		ThrottleMode: strings.ToLower(shared.GetEnv(prefix + "_THROTTLE_MODE")),
	}
}

func (e *VehicleEndpoint) setDefaults(name, address string) {
	if e.Backend == "" {
		e.Backend = BackendMavlink
	}
	if e.Address == "" {
		e.Address = address
	}
	if e.Name == "" {
		e.Name = name
	}
	if e.Namespace == "" {
		e.Namespace = e.Name
	}
	if e.ThrottleMode == "" {
		e.ThrottleMode = ThrottleSigned
	}
}

func (e *VehicleEndpoint) validate(prefix string) error {
	switch e.Backend {
	case BackendMavlink, BackendBridge, BackendSim:
	default:
		return shared.NewConfigError("vehicle", prefix+"_BACKEND", e.Backend, "must be one of mavlink, bridge, sim")
	}
	if e.ThrottleMode != ThrottleSigned && e.ThrottleMode != ThrottleUnsigned {
		return shared.NewConfigError("vehicle", prefix+"_THROTTLE_MODE", e.ThrottleMode, "must be signed or unsigned")
	}
	if e.Backend == BackendMavlink && e.Address == "" {
		return shared.NewConfigError("vehicle", prefix+"_ADDRESS", nil, "is required for the mavlink backend")
	}
	return nil
}

func (V *VehicleConfigImpl) Load() {
	V.Leader = loadEndpoint("LEADER")
	V.Follower = loadEndpoint("FOLLOWER")
	V.ConnectAttempts = shared.GetEnvAsInt("VEHICLE_CONNECT_ATTEMPTS")
	V.ConnectDelay = shared.GetEnvAsDuration("VEHICLE_CONNECT_DELAY")
	V.ReleaseTimeout = shared.GetEnvAsDuration("VEHICLE_RELEASE_TIMEOUT")
	V.CommandTimeout = shared.GetEnvAsDuration("VEHICLE_COMMAND_TIMEOUT")
}

func (V *VehicleConfigImpl) SetDefaults() {
	V.Leader.setDefaults("leader", "serial:///dev/ttyAMA0:57600")
	V.Follower.setDefaults("follower", "udp://:14541")

	if V.ConnectAttempts <= 0 {
		V.ConnectAttempts = 3
	}
	if V.ConnectDelay <= 0 {
		V.ConnectDelay = 2 * time.Second
	}
	if V.ReleaseTimeout <= 0 {
		V.ReleaseTimeout = 15 * time.Second
	}
	if V.CommandTimeout <= 0 {
		V.CommandTimeout = 5 * time.Second
	}
}

func (V *VehicleConfigImpl) Validate() error {
	if err := V.Leader.validate("LEADER"); err != nil {
		return err
	}
	if err := V.Follower.validate("FOLLOWER"); err != nil {
		return err
	}
	if V.Leader.Name == V.Follower.Name {
		return shared.NewConfigError("vehicle", "FOLLOWER_NAME", V.Follower.Name, "must differ from the leader name")
	}
	if V.ConnectAttempts < 1 {
		return shared.NewConfigError("vehicle", "VEHICLE_CONNECT_ATTEMPTS", V.ConnectAttempts, "must be at least 1")
	}
	return nil
}

var _ VehicleConfig = (*VehicleConfigImpl)(nil)
