package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"drone-follow/internal/config/components"
	"drone-follow/internal/console"
	"drone-follow/internal/database/influx"
	"drone-follow/internal/follow"
	"drone-follow/internal/logger"
	"drone-follow/internal/manual"
	"drone-follow/internal/mission"
	"drone-follow/internal/models"
	"drone-follow/internal/targetfix"
	"drone-follow/internal/vehicle"
)

// operations implements the console actions on the configured vehicle pair.
type operations struct {
	app      *Application
	leader   vehicle.Vehicle
	follower vehicle.Vehicle

	followCfg  follow.Config
	missionCfg mission.Config
	manualCfg  manual.Config
	joystick   components.ManualConfigImpl
	logger     zerolog.Logger

	mu          sync.Mutex
	coordinator *mission.Coordinator
}

func newOperations(app *Application) (*operations, error) {
	cfg := app.config

	missionCfg, err := mission.ConfigFrom(cfg.Mission, cfg.Target, cfg.Follow)
	if err != nil {
		return nil, err
	}

	followCfg := follow.ConfigFrom(cfg.Follow)
	followCfg.CleanupTimeout = cfg.Mission.CleanupTimeout
	manualCfg := manual.ConfigFrom(cfg.Manual)
	manualCfg.CleanupTimeout = cfg.Mission.CleanupTimeout

	return &operations{
		app:        app,
		leader:     app.leader,
		follower:   app.follower,
		followCfg:  followCfg,
		missionCfg: missionCfg,
		manualCfg:  manualCfg,
		joystick:   cfg.Manual,
		logger:     logger.GetLogger("operations"),
	}, nil
}

func (o *operations) controller() *follow.Controller {
	var opts []follow.Option
	if o.app.influxDB != nil {
		opts = append(opts, follow.WithRecorder(influx.NewFollowWriter(o.app.influxDB.GetWriteAPI(), logger.GetLogger("follow-writer"))))
	}
	if o.app.collector != nil {
		opts = append(opts, follow.WithMetrics(o.app.collector))
	}
	return follow.NewController(o.leader, o.follower, o.followCfg, logger.GetLogger("follow"), opts...)
}

// connectPair connects both vehicles concurrently.
func (o *operations) connectPair(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, v := range []vehicle.Vehicle{o.leader, o.follower} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = v.Connect(ctx)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (o *operations) Follow(ctx context.Context) error {
	if err := o.connectPair(ctx); err != nil {
		return err
	}
	return o.controller().Run(ctx, nil)
}

func (o *operations) Release(ctx context.Context) error {
	if err := o.follower.Connect(ctx); err != nil {
		return err
	}
	return o.follower.PrepareForRelease(ctx)
}

func (o *operations) Manual(ctx context.Context) error {
	if err := o.follower.Connect(ctx); err != nil {
		return err
	}

	source, err := o.openJoystick()
	if err != nil {
		return err
	}
	defer source.Close()

	return manual.NewMapper(o.manualCfg, logger.GetLogger("manual")).Run(ctx, source, o.follower)
}

func (o *operations) Mission(ctx context.Context) error {
	opts := []mission.Option{}
	if o.app.missionService != nil {
		opts = append(opts, mission.WithObserver(o.app.missionService))
	}
	if o.app.collector != nil {
		opts = append(opts, mission.WithObserver(o.app.collector))
	}

	source, err := o.openJoystick()
	if err != nil {
		o.logger.Warn().Err(err).Msg("No game controller, handoff will not drive the follower")
	} else {
		defer source.Close()
		opts = append(opts, mission.WithManualControl(manual.NewMapper(o.manualCfg, logger.GetLogger("manual")), source))
	}

	receiver := targetfix.NewZMQReceiver(o.app.config.Target.BindAddress, logger.GetLogger("target"))
	coordinator := mission.NewCoordinator(o.leader, o.follower, o.controller(), receiver, o.missionCfg, logger.GetLogger("mission"), opts...)

	o.mu.Lock()
	o.coordinator = coordinator
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.coordinator = nil
		o.mu.Unlock()
	}()

	return coordinator.Run(ctx)
}

func (o *operations) Handoff() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.coordinator == nil {
		return false
	}
	return o.coordinator.RequestHandoff()
}

func (o *operations) openJoystick() (*manual.JoystickSource, error) {
	source, err := manual.OpenJoystick(o.joystick.Device, manual.AxisMapFrom(o.joystick))
	if err != nil {
		return nil, fmt.Errorf("failed to open game controller %d: %w", o.joystick.Device, err)
	}
	o.logger.Info().Str("controller", source.Name()).Msg("Game controller opened")
	return source, nil
}

// close stops both vehicles and disconnects them.
func (o *operations) close(ctx context.Context) {
	if err := o.follower.SetMotionCommand(ctx, models.ZeroMotion); err != nil && !vehicle.IsUnsupported(err) {
		o.logger.Debug().Err(err).Msg("Failed to stop follower on exit")
	}
	for _, v := range []vehicle.Vehicle{o.follower, o.leader} {
		if err := v.Disconnect(ctx); err != nil {
			o.logger.Warn().Err(err).Str("vehicle", v.Name()).Msg("Failed to disconnect vehicle")
		}
	}
}

var _ console.Actions = (*operations)(nil)
