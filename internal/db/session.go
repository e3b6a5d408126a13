package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session 状态机取值：active -> completed/abandoned，终态后不再迁移
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusAbandoned = "abandoned"
)

// Session 定义一次计时练习（Ignition/Braking）
// DurationMinutes 开始时写入计划时长，结束时覆写为实测的整分钟数
// ReducedModeActive 为开始时刻的快照，之后切换减量模式不影响已有会话
type Session struct {
	ID                string `gorm:"type:uuid;primaryKey"`
	UserID            string `gorm:"type:uuid;index;not null"`
	SetupID           string `gorm:"type:uuid;not null"`
	StartTime         time.Time
	EndTime           *time.Time
	DurationMinutes   int
	NextStep          *string
	Status            string `gorm:"index;not null"`
	ReducedModeActive bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BeforeCreate 在入库前补齐 UUID 主键
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
