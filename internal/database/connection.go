package database

import (
	"fmt"
	"log/slog"

	"flooring_crm/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize connects to PostgreSQL. The schema is migrated by
// migrations.RunMigrations.
func Initialize(databaseURL string, level slog.Level) (*gorm.DB, error) {
	return Open(postgres.Open(databaseURL), level)
}

// Open connects through any gorm dialector. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, level slog.Level) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(level)),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connected", "dialect", dialector.Name())
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Customer{},
		&models.Order{},
		&models.Quote{},
		&models.ChecklistTemplate{},
		&models.ChecklistItem{},
		&models.AppSetting{},
	)
}

func gormLogLevel(level slog.Level) logger.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return logger.Info
	case level <= slog.LevelWarn:
		return logger.Warn
	default:
		return logger.Error
	}
}
