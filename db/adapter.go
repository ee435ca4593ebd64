package db

import (
	"fmt"

	"github.com/morinoparty/dailyquest/server/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
	case ModeMySQL:
		return openMySQL(cfg)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}

func openMySQL(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MySQLMaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MySQLMaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.MySQLMaxLife)
	return gdb, nil
}
