package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakialabs/makana/internal/db"
	"gorm.io/gorm"
)

// ErrSetupNotFound 在指定配置不存在时返回
var ErrSetupNotFound = errors.New("setup not found")

// SetupService 负责预设配置的查询与激活记录
// 配置本身为系统只读数据，激活记录仅追加
type SetupService struct {
	db *gorm.DB
}

// NewSetupService 构造 SetupService
func NewSetupService(gdb *gorm.DB) *SetupService {
	return &SetupService{db: gdb}
}

// Available 返回全部预设配置，按名称排序。
func (s *SetupService) Available(ctx context.Context) ([]db.Setup, error) {
	var setups []db.Setup
	err := s.db.WithContext(ctx).
		Where("is_preset = ?", true).
		Order("name ASC").
		Find(&setups).Error
	if err != nil {
		return nil, fmt.Errorf("list setups: %w", err)
	}
	return setups, nil
}

// Activate 为用户追加一条配置激活记录。
// 配置不存在返回 ErrSetupNotFound。
func (s *SetupService) Activate(ctx context.Context, userID, setupID string) (*db.UserSetup, error) {
	var setup db.Setup
	if err := s.db.WithContext(ctx).Where("id = ?", setupID).First(&setup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSetupNotFound
		}
		return nil, fmt.Errorf("find setup: %w", err)
	}

	activation := db.UserSetup{
		UserID:      userID,
		SetupID:     setup.ID,
		ActivatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&activation).Error; err != nil {
		return nil, fmt.Errorf("activate setup: %w", err)
	}

	return &activation, nil
}

// ActiveSetup 返回用户当前激活的配置。
// 没有任何激活记录时回退到名为 Calm 的预设。
func (s *SetupService) ActiveSetup(ctx context.Context, userID string) (*db.Setup, error) {
	var latest db.UserSetup
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("activated_at DESC").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.ByName(ctx, db.DefaultSetupName)
		}
		return nil, fmt.Errorf("find latest activation: %w", err)
	}

	var setup db.Setup
	if err := s.db.WithContext(ctx).Where("id = ?", latest.SetupID).First(&setup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSetupNotFound
		}
		return nil, fmt.Errorf("find setup: %w", err)
	}
	return &setup, nil
}

// ByName 按名称查找配置。
func (s *SetupService) ByName(ctx context.Context, name string) (*db.Setup, error) {
	var setup db.Setup
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&setup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSetupNotFound
		}
		return nil, fmt.Errorf("find setup by name: %w", err)
	}
	return &setup, nil
}
