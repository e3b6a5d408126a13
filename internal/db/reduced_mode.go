package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReducedModeState 记录减量模式开关
// 每用户恰好一行；切换只更新对应方向的时间戳，另一侧保留旧值
type ReducedModeState struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	UserID        string `gorm:"type:uuid;uniqueIndex;not null"`
	IsActive      bool
	ActivatedAt   *time.Time
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 保持 reduced_mode_states 表名
func (ReducedModeState) TableName() string {
	return "reduced_mode_states"
}

// BeforeCreate 在入库前补齐 UUID 主键
func (r *ReducedModeState) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
