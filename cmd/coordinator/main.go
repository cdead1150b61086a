package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"drone-follow/internal/config"
	"drone-follow/internal/console"
	"drone-follow/internal/database/influx"
	"drone-follow/internal/database/postgres"
	"drone-follow/internal/database/postgres/repositories"
	"drone-follow/internal/interfaces"
	"drone-follow/internal/logger"
	"drone-follow/internal/metrics"
	"drone-follow/internal/mq"
	"drone-follow/internal/services"
	"drone-follow/internal/vehicle"
	"drone-follow/internal/vehicle/backend"
)

type Application struct {
	config *config.Config

	postgresDB *postgres.PostgresDB
	influxDB   *influx.InfluxDB

	missionRepository *repositories.MissionRepository
	missionService    *services.MissionService

	mqttClient   *mq.Client
	topicManager *mq.TopicManager

	collector     *metrics.Collector
	metricsServer *metrics.Server

	leader     vehicle.Vehicle
	follower   vehicle.Vehicle
	operations *operations
	console    *console.Console

	shutdownChan chan os.Signal
	ctx          context.Context
	cancelFunc   context.CancelFunc
}

func main() {
	app := &Application{}

	if err := app.initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	if err := app.run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

func (app *Application) initialize() error {
	var err error

	app.config, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.NewLogger(app.config.Logger)
	log.Info().
		Str("component", "main").
		Str("service", app.config.Service.Name).
		Str("version", app.config.Service.Version).
		Msg("Setting up service...")

	app.ctx, app.cancelFunc = context.WithCancel(context.Background())
	app.shutdownChan = make(chan os.Signal, 1)
	signal.Notify(app.shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.initializeDatabases(); err != nil {
		return fmt.Errorf("error while initialize databases: %w", err)
	}

	if err := app.initializeMQTT(); err != nil {
		return fmt.Errorf("error while initializing MQTT: %w", err)
	}

	if err := app.initializeMetrics(); err != nil {
		return fmt.Errorf("error while initializing metrics: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return fmt.Errorf("error while initializing services: %w", err)
	}

	if err := app.initializeVehicles(); err != nil {
		return fmt.Errorf("error while initializing vehicles: %w", err)
	}

	log.Info().Msg("Successfully initialized application")
	return nil
}

func (app *Application) initializeDatabases() error {
	var err error

	if app.config.Postgres.Enabled {
		app.postgresDB, err = postgres.NewConnection(app.config.Postgres, logger.GetLogger("postgres"))
		if err != nil {
			return fmt.Errorf("could not connect to PostgreSQL: %w", err)
		}
		app.missionRepository = repositories.NewMissionRepository(app.postgresDB.GetDB())

		closed, err := app.missionRepository.CloseUnfinished(app.ctx, "coordinator restarted", time.Now())
		if err != nil {
			return err
		}
		event := log.Info().
			Str("component", "main").
			Str("host", app.config.Postgres.Host).
			Int64("closed_runs", closed)
		if recent, err := app.missionRepository.FindRecent(app.ctx, 1); err == nil && len(recent) > 0 {
			event = event.Str("last_run", recent[0].RunID).Str("last_phase", recent[0].CurrentPhase)
		}
		event.Msg("Successfully initialized mission journal")
	}

	if app.config.InfluxDB.Enabled {
		app.influxDB, err = influx.NewConnection(app.config.InfluxDB, logger.GetLogger("influxdb"))
		if err != nil {
			return fmt.Errorf("could not connect to InfluxDB: %w", err)
		}
	}

	return nil
}

func (app *Application) initializeMQTT() error {
	if !app.config.MQTT.Enabled {
		return nil
	}

	app.topicManager = mq.NewTopicManager(app.config.MQTT.BaseTopic, logger.GetLogger("topic-manager"))
	app.mqttClient = mq.NewClient(app.config.MQTT, logger.GetLogger("mq-client"))

	connectCtx, cancel := context.WithTimeout(app.ctx, app.config.MQTT.ConnectTimeout)
	defer cancel()

	if err := app.mqttClient.Connect(connectCtx); err != nil {
		return fmt.Errorf("could not connect to MQTT broker: %w", err)
	}

	log.Info().
		Str("component", "main").
		Str("broker", app.config.MQTT.GetUrl()).
		Str("base_topic", app.topicManager.GetBaseTopic()).
		Msg("Successfully initialized MQTT client")
	return nil
}

func (app *Application) initializeMetrics() error {
	if !app.config.Metrics.Enabled {
		return nil
	}

	var err error
	app.collector, err = metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	app.metricsServer = metrics.NewServer(app.config.Metrics, app.collector, logger.GetLogger("metrics"))
	return app.metricsServer.Start()
}

func (app *Application) initializeServices() error {
	var store services.MissionStore
	if app.missionRepository != nil {
		store = app.missionRepository
	}

	var client interfaces.IMqClient
	var topics interfaces.ITopicManager
	if app.mqttClient != nil {
		client = app.mqttClient
		topics = app.topicManager
	}

	if store == nil && client == nil {
		return nil
	}

	app.missionService = services.NewMissionService(store, client, topics, logger.GetLogger("mission-service"))

	log.Info().
		Str("component", "main").
		Bool("journal", store != nil).
		Bool("status", client != nil).
		Msg("Successfully initialized services")
	return nil
}

func (app *Application) initializeVehicles() error {
	var deps backend.Deps
	if app.mqttClient != nil {
		deps = backend.Deps{MQ: app.mqttClient, Topics: app.topicManager}
	}

	var err error
	app.leader, app.follower, err = backend.NewPair(app.config.Vehicle, deps, logger.GetLogger("vehicle"))
	if err != nil {
		return err
	}

	app.operations, err = newOperations(app)
	if err != nil {
		return err
	}
	app.console = console.New(app.operations, os.Stdout, logger.GetLogger("console"))

	log.Info().
		Str("component", "main").
		Str("leader", app.leader.Name()).
		Str("follower", app.follower.Name()).
		Msg("Successfully initialized vehicles")
	return nil
}

func (app *Application) run() error {
	done := make(chan error, 1)
	go func() {
		done <- app.drive()
	}()

	select {
	case sig := <-app.shutdownChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("Operation ended with error")
		}
		log.Info().Msg("Operator session ended, shutting down application")
	}

	return app.shutdown()
}

// drive runs either the interactive console or the configured operation.
func (app *Application) drive() error {
	if app.config.Service.Interactive {
		return app.console.Run(app.ctx, os.Stdin)
	}

	log.Info().Str("operation", app.config.Service.AutoStart).Msg("Starting configured operation")
	if _, err := app.console.Execute(app.ctx, app.config.Service.AutoStart); err != nil {
		return err
	}
	app.console.Wait()
	return nil
}

func (app *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Service.ShutdownTimeout)
	defer cancel()

	app.cancelFunc()
	if app.console != nil {
		app.console.Stop()
	}

	if app.operations != nil {
		app.operations.close(ctx)
	}

	if app.metricsServer != nil {
		if err := app.metricsServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	if app.mqttClient != nil {
		app.mqttClient.Disconnect(ctx)
	}

	if app.influxDB != nil {
		app.influxDB.Close()
	}

	if app.postgresDB != nil {
		if err := app.postgresDB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		}
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
