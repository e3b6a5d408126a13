package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakialabs/makana/internal/db"
)

func TestSetupAvailable(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()
	seedPresets(t, gdb)

	svc := NewSetupService(gdb)

	setups, err := svc.Available(context.Background())
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}

	if len(setups) != 3 {
		t.Fatalf("expected 3 presets, got %d", len(setups))
	}
	// 按名称排序：Calm, Reduced, Vitality
	if setups[0].Name != "Calm" || setups[2].Name != "Vitality" {
		t.Fatalf("unexpected order: %s, %s, %s", setups[0].Name, setups[1].Name, setups[2].Name)
	}
}

func TestSetupActivate(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()
	seedPresets(t, gdb)

	svc := NewSetupService(gdb)
	vitality := setupByName(t, gdb, "Vitality")

	activation, err := svc.Activate(context.Background(), testUserID, vitality.ID)
	if err != nil {
		t.Fatalf("Activate returned error: %v", err)
	}
	if activation.SetupID != vitality.ID {
		t.Fatalf("unexpected setup id %s", activation.SetupID)
	}
	if activation.ActivatedAt.IsZero() {
		t.Fatal("expected activation timestamp")
	}

	if _, err := svc.Activate(context.Background(), testUserID, "missing-setup"); !errors.Is(err, ErrSetupNotFound) {
		t.Fatalf("expected ErrSetupNotFound, got %v", err)
	}
}

func TestActiveSetupFallsBackToCalm(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()
	seedPresets(t, gdb)

	svc := NewSetupService(gdb)

	setup, err := svc.ActiveSetup(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("ActiveSetup returned error: %v", err)
	}
	if setup.Name != "Calm" {
		t.Fatalf("expected Calm fallback, got %s", setup.Name)
	}
}

func TestActiveSetupUsesMostRecentActivation(t *testing.T) {
	gdb, cleanup := setupTestDB(t)
	defer cleanup()
	seedPresets(t, gdb)

	calm := setupByName(t, gdb, "Calm")
	vitality := setupByName(t, gdb, "Vitality")

	base := time.Now().UTC().Add(-time.Hour)
	activations := []db.UserSetup{
		{UserID: testUserID, SetupID: calm.ID, ActivatedAt: base},
		{UserID: testUserID, SetupID: vitality.ID, ActivatedAt: base.Add(10 * time.Minute)},
	}
	for i := range activations {
		if err := gdb.Create(&activations[i]).Error; err != nil {
			t.Fatalf("failed to seed activation: %v", err)
		}
	}

	svc := NewSetupService(gdb)
	setup, err := svc.ActiveSetup(context.Background(), testUserID)
	if err != nil {
		t.Fatalf("ActiveSetup returned error: %v", err)
	}
	if setup.Name != "Vitality" {
		t.Fatalf("expected most recent activation Vitality, got %s", setup.Name)
	}
}
