package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/docqa-backend/internal/domain"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	DSN        string
	SQLitePath string
}

// Configured reports whether a database was requested at all.
func (c Config) Configured() bool {
	switch c.driver() {
	case DriverSQLite:
		return true
	default:
		return strings.TrimSpace(c.DSN) != ""
	}
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return DriverPostgres
	}
	return d
}

// Open connects and migrates every model.
func Open(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	serviceLog := log.With("service", "Database", "driver", cfg.driver())

	var dialector gorm.Dialector
	switch cfg.driver() {
	case DriverPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, apperr.Misconfigured("database", "DATABASE_URL", fmt.Errorf("missing"))
		}
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "docqa.db"
		}
		if path != ":memory:" && !strings.HasPrefix(path, "file:") {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dialector = sqlite.Open(path)
	default:
		return nil, apperr.Misconfigured("database", "DATABASE_DRIVER", fmt.Errorf("unsupported driver %q", cfg.Driver))
	}

	gormLog := gormLogger.New(
		gormWriter{log: serviceLog},
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.driver(), err)
	}
	if cfg.driver() == DriverSQLite {
		// one connection keeps :memory: databases shared and serializes writers
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	serviceLog.Info("Database ready")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return apperr.Misconfigured("database", "connection", fmt.Errorf("not connected"))
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormWriter routes gorm's warnings into the service logger.
type gormWriter struct {
	log *logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
