// Package backend builds vehicle adapters from configuration.
package backend

import (
	"fmt"

	"github.com/rs/zerolog"

	"drone-follow/internal/config/components"
	"drone-follow/internal/interfaces"
	"drone-follow/internal/vehicle"
	"drone-follow/internal/vehicle/bridge"
	"drone-follow/internal/vehicle/mavlink"
	"drone-follow/internal/vehicle/sim"
)

// Deps are the shared resources some backends need.
type Deps struct {
	MQ     interfaces.IMqClient
	Topics interfaces.ITopicManager
}

func options(endpoint components.VehicleEndpoint, cfg components.VehicleConfigImpl) vehicle.Options {
	return vehicle.Options{
		Name:            endpoint.Name,
		Address:         endpoint.Address,
		Namespace:       endpoint.Namespace,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectDelay:    cfg.ConnectDelay,
		ReleaseTimeout:  cfg.ReleaseTimeout,
		CommandTimeout:  cfg.CommandTimeout,

		UnsignedThrottle: endpoint.ThrottleMode == components.ThrottleUnsigned,
	}.WithDefaults()
}

func New(endpoint components.VehicleEndpoint, cfg components.VehicleConfigImpl, deps Deps, logger zerolog.Logger) (vehicle.Vehicle, error) {
	opts := options(endpoint, cfg)
	logger = logger.With().Str("vehicle", opts.Name).Str("backend", endpoint.Backend).Logger()

	switch endpoint.Backend {
	case components.BackendMavlink:
		if _, err := mavlink.ParseEndpoint(opts.Address); err != nil {
			return nil, err
		}
		return mavlink.New(opts, logger), nil

	case components.BackendBridge:
		if deps.MQ == nil || deps.Topics == nil {
			return nil, fmt.Errorf("%s: bridge backend needs an MQTT client", opts.Name)
		}
		return bridge.New(opts, deps.MQ, deps.Topics, logger), nil

	case components.BackendSim:
		start, err := sim.ParseAddress(opts.Address)
		if err != nil {
			return nil, err
		}
		return sim.New(opts, sim.Config{Start: start}, logger), nil
	}

	return nil, fmt.Errorf("%s: unknown vehicle backend %q", opts.Name, endpoint.Backend)
}

// NewPair builds the leader and the follower.
func NewPair(cfg components.VehicleConfigImpl, deps Deps, logger zerolog.Logger) (vehicle.Vehicle, vehicle.Vehicle, error) {
	leader, err := New(cfg.Leader, cfg, deps, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create leader: %w", err)
	}
	follower, err := New(cfg.Follower, cfg, deps, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create follower: %w", err)
	}
	return leader, follower, nil
}
