package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/balkashynov/attendr/internal/config"
	"github.com/balkashynov/attendr/internal/models"
)

// DB is the process-wide connection opened by Initialize
var DB *gorm.DB

// Options controls how a connection is opened
type Options struct {
	DSN    string
	Logger *slog.Logger
	// Verbose logs every statement at debug level, not only slow or failed ones
	Verbose bool
}

// Initialize opens the database named by opts, runs migrations and stores the connection in DB.
func Initialize(opts Options) error {
	db, err := Open(opts)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects to sqlite (a file path) or postgres (a URL or key=value DSN) and migrates
// the schema.
func Open(opts Options) (*gorm.DB, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	gormCfg := &gorm.Config{
		Logger: NewGormLogger(opts.Logger, opts.Verbose),
	}

	var (
		db  *gorm.DB
		err error
	)
	if config.IsPostgresDSN(opts.DSN) {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  opts.DSN,
			PreferSimpleProtocol: true,
		}), gormCfg)
	} else {
		path := opts.DSN
		if !strings.HasPrefix(path, "file:") && path != ":memory:" {
			// Ensure the directory exists
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = gorm.Open(sqlite.Open(path), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// runMigrations creates/updates the database schema
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.ClockRecord{},
		&models.LeaveRequest{},
	); err != nil {
		return err
	}
	if db.Dialector.Name() == "postgres" {
		return installNotifyTriggers(db)
	}
	return nil
}

// Close closes the connection opened by Initialize
func Close() error {
	return CloseDB(DB)
}

// CloseDB closes any gorm connection
func CloseDB(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
