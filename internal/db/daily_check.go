package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DailyCheck 记录每日一次的打卡反思
// UserID + CheckDate 采用唯一索引，保证一天仅一条；创建后不再修改
// Responses 为开放的键值对，由客户端定义问题
type DailyCheck struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	UserID      string    `gorm:"type:uuid;index:idx_daily_check_unique,unique;not null"`
	CheckDate   time.Time `gorm:"index:idx_daily_check_unique,unique"`
	Responses   datatypes.JSONMap
	CompletedAt time.Time
	CreatedAt   time.Time
}

// TableName 确保唯一索引作用到 user_id + check_date
func (DailyCheck) TableName() string {
	return "daily_checks"
}

// BeforeCreate 在入库前补齐 UUID 主键
func (d *DailyCheck) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
