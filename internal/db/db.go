package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/myrobot/academy/internal/models"
)

// DSNParams are appended to every SQLite path.
const DSNParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open connects to the SQLite file at path and migrates the entries table.
func Open(path string, log zerolog.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path+DSNParams), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := conn.AutoMigrate(&models.Entry{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	log.Info().Str("path", path).Msg("database ready (sqlite)")
	return conn, nil
}
