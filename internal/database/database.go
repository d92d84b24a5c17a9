package database

import (
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/priyxstudio/botdeck/internal/models"
)

var (
	o  atomic.Bool
	db *gorm.DB
)

// Open opens the sqlite file at path and migrates the models. The returned
// handle uses a single connection so the pragmas apply to every query.
func Open(path string) (*gorm.DB, error) {
	instance, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "database: could not open database file")
	}

	sql, err := instance.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sql.SetMaxOpenConns(1)
	sql.SetConnMaxLifetime(time.Hour)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL"} {
		if tx := instance.Exec(pragma); tx.Error != nil {
			_ = sql.Close()
			return nil, errors.WithMessagef(tx.Error, "database: failed to run %q", pragma)
		}
	}

	if err := instance.AutoMigrate(&models.Bot{}, &models.Group{}); err != nil {
		_ = sql.Close()
		return nil, errors.Wrap(err, "database: failed to migrate models")
	}
	return instance, nil
}

// Initialize opens the database used for the rest of the process lifetime.
func Initialize(path string) error {
	if !o.CompareAndSwap(false, true) {
		return errors.New("database: attempt to initialize more than once during application lifecycle")
	}
	instance, err := Open(path)
	if err != nil {
		o.Store(false)
		return err
	}
	db = instance
	return nil
}

// Instance returns the gorm database instance that was configured when the
// application was booted.
func Instance() *gorm.DB {
	if db == nil {
		panic("database: attempt to access instance before initialized")
	}
	return db
}

// Close releases the database opened by Initialize.
func Close() error {
	if db == nil {
		return nil
	}
	sql, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return sql.Close()
}
