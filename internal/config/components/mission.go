package components

import (
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type MissionConfig interface {
	interfaces.Config
}

type MissionConfigImpl struct {
	LeaderConnectTimeout   time.Duration `json:"leader_connect_timeout"`
	FollowerConnectTimeout time.Duration `json:"follower_connect_timeout"`
	FollowerRetryInterval  time.Duration `json:"follower_retry_interval"`
	StabilizeTimeout       time.Duration `json:"stabilize_timeout"`
	StabilizePoll          time.Duration `json:"stabilize_poll"`
	StabilizeModes         string        `json:"stabilize_modes"`
	StabilizeSamples       int           `json:"stabilize_samples"`
	HandoffModes           string        `json:"handoff_modes"`
	MinAltitude            float64       `json:"min_altitude"`
	ClearDistance          float64       `json:"clear_distance"`
	ClearBearing           float64       `json:"clear_bearing"`
	ClearSettle            time.Duration `json:"clear_settle"`
	ArrivalRadius          float64       `json:"arrival_radius"`
	ArrivalPoll            time.Duration `json:"arrival_poll"`
	FallbackAltitude       float64       `json:"fallback_altitude"`
	CleanupTimeout         time.Duration `json:"cleanup_timeout"`
}

func NewMissionConfig() MissionConfigImpl {
	config := MissionConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (M *MissionConfigImpl) Load() {
	M.LeaderConnectTimeout = shared.GetEnvAsDuration("MISSION_LEADER_CONNECT_TIMEOUT")
	M.FollowerConnectTimeout = shared.GetEnvAsDuration("MISSION_FOLLOWER_CONNECT_TIMEOUT")
	M.FollowerRetryInterval = shared.GetEnvAsDuration("MISSION_FOLLOWER_RETRY_INTERVAL")
	M.StabilizeTimeout = shared.GetEnvAsDuration("MISSION_STABILIZE_TIMEOUT")
	M.StabilizePoll = shared.GetEnvAsDuration("MISSION_STABILIZE_POLL")
	M.StabilizeModes = shared.GetEnv("MISSION_STABILIZE_MODES")
	M.StabilizeSamples = shared.GetEnvAsInt("MISSION_STABILIZE_SAMPLES")
	M.HandoffModes = shared.GetEnv("MISSION_HANDOFF_MODES")
	M.MinAltitude = shared.GetEnvAsFloat("MISSION_MIN_ALTITUDE", 1.0)
	M.ClearDistance = shared.GetEnvAsFloat("MISSION_CLEAR_DISTANCE", 50)
	M.ClearBearing = shared.GetEnvAsFloat("MISSION_CLEAR_BEARING", 0)
	M.ClearSettle = shared.GetEnvAsDuration("MISSION_CLEAR_SETTLE")
	M.ArrivalRadius = shared.GetEnvAsFloat("MISSION_ARRIVAL_RADIUS", 2)
	M.ArrivalPoll = shared.GetEnvAsDuration("MISSION_ARRIVAL_POLL")
	M.FallbackAltitude = shared.GetEnvAsFloat("MISSION_FALLBACK_ALTITUDE", 15)
	M.CleanupTimeout = shared.GetEnvAsDuration("MISSION_CLEANUP_TIMEOUT")
}

func (M *MissionConfigImpl) SetDefaults() {
	if M.LeaderConnectTimeout <= 0 {
		M.LeaderConnectTimeout = 15 * time.Second
	}
	if M.FollowerConnectTimeout <= 0 {
		M.FollowerConnectTimeout = 50 * time.Second
	}
	if M.FollowerRetryInterval <= 0 {
		M.FollowerRetryInterval = 5 * time.Second
	}
	if M.StabilizeTimeout <= 0 {
		M.StabilizeTimeout = 60 * time.Second
	}
	if M.StabilizePoll <= 0 {
		M.StabilizePoll = time.Second
	}
	if M.StabilizeModes == "" {
		M.StabilizeModes = "HOLD"
	}
	if M.StabilizeSamples <= 0 {
		M.StabilizeSamples = 3
	}
	if M.HandoffModes == "" {
		M.HandoffModes = "HOLD,LOITER"
	}
	if M.ClearSettle <= 0 {
		M.ClearSettle = 10 * time.Second
	}
	if M.ArrivalPoll <= 0 {
		M.ArrivalPoll = time.Second
	}
	if M.CleanupTimeout <= 0 {
		M.CleanupTimeout = 5 * time.Second
	}
}

func (M *MissionConfigImpl) Validate() error {
	if M.ArrivalRadius <= 0 {
		return shared.NewConfigError("mission", "MISSION_ARRIVAL_RADIUS", M.ArrivalRadius, "must be positive")
	}
	if M.ClearDistance < 0 {
		return shared.NewConfigError("mission", "MISSION_CLEAR_DISTANCE", M.ClearDistance, "cannot be negative")
	}
	if M.FallbackAltitude <= 0 {
		return shared.NewConfigError("mission", "MISSION_FALLBACK_ALTITUDE", M.FallbackAltitude, "must be positive")
	}
	if M.FollowerRetryInterval > M.FollowerConnectTimeout {
		return shared.NewConfigError("mission", "MISSION_FOLLOWER_RETRY_INTERVAL", M.FollowerRetryInterval, "must not exceed MISSION_FOLLOWER_CONNECT_TIMEOUT")
	}
	return nil
}

var _ MissionConfig = (*MissionConfigImpl)(nil)
