package db

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Setup 定义预设配置模型
// DefaultDurationMinutes 取值 1-120，Emphasis 仅使用 rest/continuity/health
// 预设数据由种子写入，核心逻辑只读不改
type Setup struct {
	ID                     string `gorm:"type:uuid;primaryKey"`
	Name                   string `gorm:"uniqueIndex;not null"`
	Description            string
	DefaultDurationMinutes int    `gorm:"not null"`
	Emphasis               string `gorm:"not null"`
	IsPreset               bool
	CreatedAt              time.Time
}

// Emphasis 合法取值
const (
	EmphasisRest       = "rest"
	EmphasisContinuity = "continuity"
	EmphasisHealth     = "health"
)

// DefaultSetupName 是未激活任何配置时的回退预设
const DefaultSetupName = "Calm"

// BeforeCreate 在入库前补齐 UUID 主键
func (s *Setup) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// UserSetup 记录一次配置激活事件
// 仅追加不修改，最近一条即当前激活配置
type UserSetup struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	UserID      string `gorm:"type:uuid;index;not null"`
	SetupID     string `gorm:"type:uuid;not null"`
	ActivatedAt time.Time
	CreatedAt   time.Time
}

// TableName 保持 user_setups 表名
func (UserSetup) TableName() string {
	return "user_setups"
}

// BeforeCreate 在入库前补齐 UUID 主键
func (u *UserSetup) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// EnsurePresetSetups 存在性检查：缺失的预设配置会被补齐，已有数据不做变更。
func EnsurePresetSetups(gdb *gorm.DB) error {
	if gdb == nil {
		return errors.New("database not initialized")
	}

	presets := []Setup{
		{Name: "Calm", Description: "Steady default practice.", DefaultDurationMinutes: 25, Emphasis: EmphasisRest, IsPreset: true},
		{Name: "Reduced", Description: "Short interval for low-capacity days.", DefaultDurationMinutes: 15, Emphasis: EmphasisContinuity, IsPreset: true},
		{Name: "Vitality", Description: "Longer interval for high-energy days.", DefaultDurationMinutes: 30, Emphasis: EmphasisHealth, IsPreset: true},
	}

	for _, preset := range presets {
		var existing Setup
		err := gdb.Where("name = ?", preset.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := gdb.Create(&preset).Error; err != nil {
			return err
		}
	}

	return nil
}
