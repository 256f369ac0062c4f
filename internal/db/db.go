package db

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/circuit/internal/config"
)

const (
	connectAttempts = 5
	connectDelay    = 2 * time.Second
)

// Dialector picks the GORM driver from the DATABASE_URL prefix.
func Dialector(dbURL string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		// The pgx driver accepts the URL form as is.
		return postgres.Open(dbURL), nil
	case strings.HasPrefix(dbURL, "mysql://"):
		return mysql.Open(strings.TrimPrefix(dbURL, "mysql://")), nil
	case strings.HasPrefix(dbURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dbURL, "sqlite://")), nil
	}
	return nil, fmt.Errorf("invalid DATABASE_URL prefix, must be postgres://, mysql:// or sqlite://")
}

func gormLogger(cfg *config.Config) logger.Interface {
	level := logger.Silent
	if cfg.DebugSQL {
		level = logger.Info
	} else if cfg.IsProduction() {
		level = logger.Warn
	}
	return logger.New(
		log.New(config.LogWriter, "\r\n", log.LstdFlags),
		logger.Config{LogLevel: level, IgnoreRecordNotFoundError: true},
	)
}

// Init opens the database named by cfg.DatabaseURL, retrying while the
// server is not reachable yet.
func Init(cfg *config.Config) (*gorm.DB, error) {
	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		dbURL = "sqlite://circuit.db"
		log.Println("DATABASE_URL not set, defaulting to 'sqlite://circuit.db'")
	}
	dialector, err := Dialector(dbURL)
	if err != nil {
		return nil, err
	}

	var database *gorm.DB
	err = retry.Do(
		func() error {
			var openErr error
			database, openErr = Open(dialector, &gorm.Config{Logger: gormLogger(cfg)})
			return openErr
		},
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("Database not ready (attempt %d): %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established.")
	return database, nil
}

// Open connects and configures the pool. SQLite gets a single connection
// since it serializes writers anyway.
func Open(dialector gorm.Dialector, gormCfg *gorm.Config) (*gorm.DB, error) {
	database, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	if dialector.Name() == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return database, nil
}
