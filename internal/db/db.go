package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bienesraices/internal/model"
)

// Config contains database connection options.
type Config struct {
	Driver string // mysql (default) or sqlite
	DSN    string
	// Path is the SQLite database file; empty means in-memory.
	Path            string
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
	LogLevel        logger.LogLevel
}

// Open returns a connected GORM DB instance for the configured driver.
func Open(cfg Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	var (
		db  *gorm.DB
		err error
	)
	driver := strings.ToLower(cfg.Driver)
	switch driver {
	case "", "mysql":
		driver = "mysql"
		db, err = NewMySQL(cfg.DSN, gormCfg)
	case "sqlite":
		db, err = NewSQLite(cfg.Path, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	// Pool limits only apply to MySQL; an in-memory SQLite database lives
	// on its single connection.
	if driver == "mysql" {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Account{})
}

// DropAll removes every table owned by the application.
func DropAll(db *gorm.DB) error {
	return db.Migrator().DropTable(&model.Account{})
}

func logLevel(l logger.LogLevel) logger.LogLevel {
	if l == 0 {
		return logger.Warn
	}
	return l
}
