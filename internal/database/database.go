// Package database owns the MySQL control-plane store: groups, API keys,
// settings documents and backup records. Audit events and metrics live in
// Elasticsearch and TimescaleDB instead.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"one-ui-backend/config"
	"one-ui-backend/internal/model"
)

// ProvideDatabase opens the MySQL database, runs schema migrations and
// registers a shutdown hook that closes the connection pool.
func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(
		&model.Group{},
		&model.APIKey{},
		&model.Setting{},
		&model.BackupRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Closing database connection pool")
			return sqlDB.Close()
		},
	})

	log.Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Name).
		Msg("Successfully connected to MySQL and ran migrations")
	return db, nil
}
