package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"drone-follow/internal/config/components"
)

func NewLogger(cfg components.LoggerConfigImpl) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg components.LoggerConfigImpl, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log.Logger
}

func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
