// Package database opens the PostgreSQL and Redis connections used by the
// services.
package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/model"
)

// New opens the PostgreSQL connection, installs the pgvector extension and
// runs the schema migration.
func New(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	logger.Info("connecting to database",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("name", cfg.Name))

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector;").Error; err != nil {
		return nil, fmt.Errorf("failed to install pgvector extension: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("database ready")
	return db, nil
}

// Migrate applies the schema for the corpus and the usage log.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Recipe{}, &model.RecipeUsage{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
