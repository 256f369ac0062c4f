package db

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var memSeq atomic.Int64

// RunMemoryDB opens a migrated, private in-memory SQLite database for unit tests.
func RunMemoryDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:circuit_test_%d?mode=memory&cache=shared", memSeq.Add(1))
	database, err := Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// StopDB closes the underlying connection, discarding an in-memory database.
func StopDB(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
