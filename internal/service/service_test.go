package service

import (
	"testing"

	"github.com/sakialabs/makana/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cleanup := func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return gdb, cleanup
}

func seedPresets(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	if err := db.EnsurePresetSetups(gdb); err != nil {
		t.Fatalf("failed to seed presets: %v", err)
	}
}

func setupByName(t *testing.T, gdb *gorm.DB, name string) db.Setup {
	t.Helper()
	var setup db.Setup
	if err := gdb.Where("name = ?", name).First(&setup).Error; err != nil {
		t.Fatalf("failed to load setup %s: %v", name, err)
	}
	return setup
}
