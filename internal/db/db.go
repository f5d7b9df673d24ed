package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open 打开数据库连接并执行自动迁移。
// sqlite 时 target 为文件路径，为空回退到 users.db；postgres 时 target 为 DSN。
func Open(driver, target string) (*gorm.DB, error) {
	dialector, err := dialectorFor(driver, target)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate 为核心模型创建表与索引
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&User{}, &ScheduleEntry{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Close 释放底层连接池
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(driver, target string) (gorm.Dialector, error) {
	target = strings.TrimSpace(target)

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres:
		if target == "" {
			return nil, errors.New("postgres driver requires DATABASE_URL")
		}
		return postgres.Open(target), nil
	case DriverSQLite, "":
		if target == "" {
			target = "users.db"
		}
		if !strings.HasPrefix(target, "file:") {
			if err := ensureParentDir(target); err != nil {
				return nil, err
			}
		}
		return sqlite.Open(target), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
