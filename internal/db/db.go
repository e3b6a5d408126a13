package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Init 打开数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 makana.db。
func Init(databasePath string) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "makana.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate 为核心模型创建表与索引。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&UserProfile{},
		&Setup{},
		&UserSetup{},
		&Session{},
		&DailyCheck{},
		&WeeklyCheck{},
		&ReducedModeState{},
	); err != nil {
		return err
	}

	// 部分唯一索引：同一用户最多一个 active 会话，在存储层兜底 Start 的前置检查
	if err := gdb.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active ON sessions(user_id) WHERE status = 'active'`,
	).Error; err != nil {
		return err
	}

	return nil
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
