package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakialabs/makana/internal/db"
	"gorm.io/gorm"
)

// ReducedModeService 负责减量模式开关
// 开关幂等：同向重复调用原样返回当前状态；切换只盖对应方向的时间戳，
// 另一侧的旧时间戳按原始语义保留不清
type ReducedModeService struct {
	db *gorm.DB
}

// NewReducedModeService 构造 ReducedModeService
func NewReducedModeService(gdb *gorm.DB) *ReducedModeService {
	return &ReducedModeService{db: gdb}
}

// Activate 开启减量模式。
func (s *ReducedModeService) Activate(ctx context.Context, userID string) (*db.ReducedModeState, error) {
	return s.toggle(ctx, userID, true)
}

// Deactivate 关闭减量模式。
func (s *ReducedModeService) Deactivate(ctx context.Context, userID string) (*db.ReducedModeState, error) {
	return s.toggle(ctx, userID, false)
}

// State 返回当前状态；没有记录时合成一个未开启的默认值，不落库。
func (s *ReducedModeService) State(ctx context.Context, userID string) (*db.ReducedModeState, error) {
	state, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return &db.ReducedModeState{UserID: userID, IsActive: false}, nil
	}
	return state, nil
}

func (s *ReducedModeService) toggle(ctx context.Context, userID string, active bool) (*db.ReducedModeState, error) {
	existing, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if existing == nil {
		state := db.ReducedModeState{UserID: userID, IsActive: active}
		if active {
			state.ActivatedAt = &now
		} else {
			state.DeactivatedAt = &now
		}
		if err := s.db.WithContext(ctx).Create(&state).Error; err != nil {
			return nil, fmt.Errorf("create reduced mode state: %w", err)
		}
		return &state, nil
	}

	if existing.IsActive == active {
		return existing, nil
	}

	updates := map[string]any{
		"is_active":  active,
		"updated_at": now,
	}
	if active {
		updates["activated_at"] = now
	} else {
		updates["deactivated_at"] = now
	}

	if err := s.db.WithContext(ctx).Model(&db.ReducedModeState{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update reduced mode state: %w", err)
	}

	return s.find(ctx, userID)
}

func (s *ReducedModeService) find(ctx context.Context, userID string) (*db.ReducedModeState, error) {
	var state db.ReducedModeState
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reduced mode state: %w", err)
	}
	return &state, nil
}
