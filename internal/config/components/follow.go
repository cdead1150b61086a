package components

import (
	"strings"
	"time"

	"drone-follow/internal/config/shared"
	"drone-follow/internal/interfaces"
)

type FollowConfig interface {
	interfaces.Config
}

const (
	TooClosePolicyStop = "stop"
	TooClosePolicyLand = "land"
)

type FollowConfigImpl struct {
	Distance        float64       `json:"distance"`
	MinDistance     float64       `json:"min_distance"`
	MaxDistance     float64       `json:"max_distance"`
	AltitudeOffset  float64       `json:"altitude_offset"`
	Interval        time.Duration `json:"interval"`
	PositionTimeout time.Duration `json:"position_timeout"`
	RetryDelay      time.Duration `json:"retry_delay"`
	MaxFailures     int           `json:"max_failures"`
	TooClosePolicy  string        `json:"too_close_policy"`
}

func NewFollowConfig() FollowConfigImpl {
	config := FollowConfigImpl{}
	config.Load()
	config.SetDefaults()
	return config
}

func (F *FollowConfigImpl) Load() {
	F.Distance = shared.GetEnvAsFloat("FOLLOW_DISTANCE", 20)
	F.MinDistance = shared.GetEnvAsFloat("FOLLOW_MIN_DISTANCE", 10)
	F.MaxDistance = shared.GetEnvAsFloat("FOLLOW_MAX_DISTANCE", 30)
	F.AltitudeOffset = shared.GetEnvAsFloat("FOLLOW_ALTITUDE_OFFSET", 2)
	F.Interval = shared.GetEnvAsDuration("FOLLOW_INTERVAL")
	F.PositionTimeout = shared.GetEnvAsDuration("FOLLOW_POSITION_TIMEOUT")
	F.RetryDelay = shared.GetEnvAsDuration("FOLLOW_RETRY_DELAY")
	F.MaxFailures = shared.GetEnvAsInt("FOLLOW_MAX_FAILURES")
	F.TooClosePolicy = strings.ToLower(shared.GetEnv("FOLLOW_TOO_CLOSE_POLICY"))
}

func (F *FollowConfigImpl) SetDefaults() {
	if F.Interval <= 0 {
		F.Interval = time.Second
	}
	if F.PositionTimeout <= 0 {
		F.PositionTimeout = 2 * time.Second
	}
	if F.RetryDelay <= 0 {
		F.RetryDelay = 500 * time.Millisecond
	}
	if F.MaxFailures <= 0 {
		F.MaxFailures = 3
	}
	if F.TooClosePolicy == "" {
		F.TooClosePolicy = TooClosePolicyStop
	}
}

func (F *FollowConfigImpl) Validate() error {
	if F.MinDistance <= 0 {
		return shared.NewConfigError("follow", "FOLLOW_MIN_DISTANCE", F.MinDistance, "must be positive")
	}
	if F.Distance <= F.MinDistance {
		return shared.NewConfigError("follow", "FOLLOW_DISTANCE", F.Distance, "must be greater than FOLLOW_MIN_DISTANCE")
	}
	if F.MaxDistance <= F.Distance {
		return shared.NewConfigError("follow", "FOLLOW_MAX_DISTANCE", F.MaxDistance, "must be greater than FOLLOW_DISTANCE")
	}
	if F.TooClosePolicy != TooClosePolicyStop && F.TooClosePolicy != TooClosePolicyLand {
		return shared.NewConfigError("follow", "FOLLOW_TOO_CLOSE_POLICY", F.TooClosePolicy, "must be stop or land")
	}
	return nil
}

var _ FollowConfig = (*FollowConfigImpl)(nil)
