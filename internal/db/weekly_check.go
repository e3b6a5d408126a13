package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WeeklyCheck 记录每周反思
// WeekStartDate/WeekEndDate 为创建时刻所在的周一到周日
// Insight 与 ScopeRecommendation 在创建时由规则引擎算出并冻结，读取时不重算
type WeeklyCheck struct {
	ID                  string `gorm:"type:uuid;primaryKey"`
	UserID              string `gorm:"type:uuid;index;not null"`
	WeekStartDate       time.Time
	WeekEndDate         time.Time
	Responses           datatypes.JSONMap
	Insight             *string
	ScopeRecommendation *string
	CompletedAt         time.Time
	CreatedAt           time.Time
}

// TableName 保持 weekly_checks 表名
func (WeeklyCheck) TableName() string {
	return "weekly_checks"
}

// BeforeCreate 在入库前补齐 UUID 主键
func (w *WeeklyCheck) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
