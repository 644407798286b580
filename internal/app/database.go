package app

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/equipview/equipview/config"
	"github.com/equipview/equipview/pkg/common"
)

func gormLogLevel(debug bool) logger.Interface {
	if debug {
		return logger.Default.LogMode(logger.Info)
	}
	return logger.Default.LogMode(logger.Warn)
}

// openLocalDatabase opens the file-backed SQLite store. Access is
// serialized through a single connection; request volume does not
// warrant finer locking and SQLite prefers one writer anyway.
func openLocalDatabase(cfg *config.AppConfig) (*gorm.DB, error) {
	path := cfg.LocalDBPath()
	common.MustMkdir(filepath.Dir(path))

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogLevel(cfg.Local.Debug),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	zap.S().Infof("local store opened: %s", path)
	return db, nil
}

// openRemoteDatabase opens the hosted Postgres store. Failure here is
// not fatal; the server starts offline and the monitor keeps probing.
func openRemoteDatabase(cfg *config.AppConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.RemoteDSN()), &gorm.Config{
		Logger: gormLogLevel(cfg.Remote.Debug),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Remote.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.Remote.MaxConn)
	}
	if cfg.Remote.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.Remote.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
