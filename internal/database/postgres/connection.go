package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"drone-follow/internal/config/components"
	"drone-follow/internal/models"
)

type PostgresDB struct {
	db *gorm.DB
}

func NewConnection(cfg components.PostgresConfigImpl, zlog zerolog.Logger) (*PostgresDB, error) {
	return Open(postgres.Open(cfg.GetDsn()), zlog)
}

// Open connects through any gorm dialector and migrates the journal tables.
func Open(dialector gorm.Dialector, zlog zerolog.Logger) (*PostgresDB, error) {
	gormLogger := logger.New(
		log.New(zlog, "", 0),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	postgresDB := &PostgresDB{db: db}

	if err := postgresDB.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	zlog.Info().Str("dialect", dialector.Name()).Msg("Mission journal database ready")
	return postgresDB, nil
}

func (p *PostgresDB) migrate() error {
	return p.db.AutoMigrate(
		&models.MissionRun{},
		&models.PhaseTransition{},
	)
}

func (p *PostgresDB) GetDB() *gorm.DB {
	return p.db
}

func (p *PostgresDB) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
