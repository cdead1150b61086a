package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"

	"drone-follow/internal/config/components"
)

type InfluxDB struct {
	client     influxdb2.Client
	writeAPI   api.WriteAPI
	logger     zerolog.Logger
	cancelFunc context.CancelFunc
}

func NewConnection(cfg components.InfluxConfigImpl, logger zerolog.Logger) (*InfluxDB, error) {
	options := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.FlushInterval / time.Millisecond))
	client := influxdb2.NewClientWithOptions(cfg.GetUrl(), cfg.Token, options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("InfluxDB health check failed: %s", health.Status)
	}

	writeAPI := client.WriteAPI(cfg.Organization, cfg.Bucket)
	errCtx, cancelFunc := context.WithCancel(context.Background())

	influxDB := &InfluxDB{
		client:     client,
		writeAPI:   writeAPI,
		logger:     logger,
		cancelFunc: cancelFunc,
	}

	go influxDB.handleWriteErrors(errCtx)

	logger.Info().
		Str("url", cfg.GetUrl()).
		Str("organization", cfg.Organization).
		Str("bucket", cfg.Bucket).
		Msg("Successfully connected to InfluxDB")

	return influxDB, nil
}

func (i *InfluxDB) handleWriteErrors(ctx context.Context) {
	errorsCh := i.writeAPI.Errors()
	for {
		select {
		case err := <-errorsCh:
			i.logger.Error().Err(err).Msg("Write error occurred")
		case <-ctx.Done():
			return
		}
	}
}

func (i *InfluxDB) GetWriteAPI() api.WriteAPI {
	return i.writeAPI
}

func (i *InfluxDB) Close() {
	i.writeAPI.Flush()
	i.cancelFunc()
	i.client.Close()
	i.logger.Info().Msg("InfluxDB connection closed")
}
