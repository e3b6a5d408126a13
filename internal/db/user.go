package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProfile 定义用户档案模型
// ID 与身份令牌中的 sub 一致，注册时生成
type UserProfile struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 保持与托管端一致的表名
func (UserProfile) TableName() string {
	return "user_profiles"
}

// BeforeCreate 在入库前补齐 UUID 主键
func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
