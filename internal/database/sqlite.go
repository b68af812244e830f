package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/internal/model"
	"github.com/hioscollector/hioscollector/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

var db *gorm.DB

// InitSQLite opens the inventory database and migrates the schema.
func InitSQLite(cfg config.SQLiteConfig) error {
	dbDir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	gormConfig := &gorm.Config{
		Logger: gormLogger.New(
			logger.GetLogger(),
			gormLogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		// SQLite wraps every write in a transaction by default, which
		// amplifies lock contention under concurrent collection.
		SkipDefaultTransaction: true,
	}

	// modernc driver, no cgo; WAL keeps readers unblocked during writes.
	dsn := cfg.Path + "?_pragma=busy_timeout(15000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"
	var err error
	db, err = gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Single connection so the PRAGMAs apply everywhere.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(
		&model.Device{},
		&model.ConfigBackup{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	logger.Info("SQLite database initialized successfully")
	return nil
}

// GetDB returns the shared database handle.
func GetDB() *gorm.DB {
	return db
}

// Close releases the database handle.
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
