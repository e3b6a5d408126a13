package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakialabs/makana/internal/db"
	"gorm.io/datatypes"
)

func TestDailyCheckCreate(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewDailyCheckService(gdb)

	check, err := svc.Create(context.Background(), testUserID, map[string]any{"energy": "medium"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if check.ID == "" {
		t.Fatal("expected check to have ID")
	}
	if check.Responses["energy"] != "medium" {
		t.Fatalf("unexpected responses: %v", check.Responses)
	}
	if !check.CheckDate.Equal(check.CheckDate.Truncate(24 * time.Hour)) {
		t.Fatalf("expected check date at midnight, got %v", check.CheckDate)
	}
}

func TestDailyCheckDuplicate(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewDailyCheckService(gdb)

	if _, err := svc.Create(context.Background(), testUserID, map[string]any{"energy": "high"}); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	if _, err := svc.Create(context.Background(), testUserID, map[string]any{"energy": "low"}); !errors.Is(err, ErrDailyCheckExists) {
		t.Fatalf("expected ErrDailyCheckExists, got %v", err)
	}

	// 其他用户当天仍可打卡
	if _, err := svc.Create(context.Background(), "other-user", map[string]any{"energy": "low"}); err != nil {
		t.Fatalf("Create for other user returned error: %v", err)
	}
}

func TestDailyCheckToday(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewDailyCheckService(gdb)

	check, err := svc.Today(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if check != nil {
		t.Fatal("expected no check before creation")
	}

	created, err := svc.Create(context.Background(), testUserID, map[string]any{"mood": "steady"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	check, err = svc.Today(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("Today returned error: %v", err)
	}
	if check == nil || check.ID != created.ID {
		t.Fatalf("expected today's check %s, got %+v", created.ID, check)
	}
}

func TestDailyCheckHistory(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < 3; i++ {
		check := db.DailyCheck{
			UserID:      testUserID,
			CheckDate:   today.AddDate(0, 0, -i),
			Responses:   datatypes.JSONMap{"day": i},
			CompletedAt: today.AddDate(0, 0, -i),
		}
		if err := gdb.Create(&check).Error; err != nil {
			t.Fatalf("failed to seed check: %v", err)
		}
	}

	svc := NewDailyCheckService(gdb)

	checks, err := svc.History(context.Background(), testUserID, 2, 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checks))
	}
	if checks[0].CheckDate.Before(checks[1].CheckDate) {
		t.Fatal("expected reverse chronological order")
	}
}
