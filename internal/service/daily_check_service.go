package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakialabs/makana/internal/db"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrDailyCheckExists 在当天已有打卡记录时返回
var ErrDailyCheckExists = errors.New("daily check already exists for today")

// DailyCheckService 负责每日打卡：一天一条，创建后不可修改
type DailyCheckService struct {
	db *gorm.DB
}

// NewDailyCheckService 构造 DailyCheckService
func NewDailyCheckService(gdb *gorm.DB) *DailyCheckService {
	return &DailyCheckService{db: gdb}
}

// Create 创建今日打卡。
// 当天已存在记录时返回 ErrDailyCheckExists。
func (s *DailyCheckService) Create(ctx context.Context, userID string, responses map[string]any) (*db.DailyCheck, error) {
	now := time.Now().UTC()
	today := normalizeToDate(now)

	existing, err := s.ByDate(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDailyCheckExists
	}

	check := db.DailyCheck{
		UserID:      userID,
		CheckDate:   today,
		Responses:   datatypes.JSONMap(responses),
		CompletedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&check).Error; err != nil {
		// 唯一索引兜底并发重复创建
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDailyCheckExists
		}
		return nil, fmt.Errorf("create daily check: %w", err)
	}

	return &check, nil
}

// Today 返回今日打卡，不存在时返回 nil。
func (s *DailyCheckService) Today(ctx context.Context, userID string) (*db.DailyCheck, error) {
	return s.ByDate(ctx, userID, normalizeToDate(time.Now().UTC()))
}

// ByDate 返回指定日期的打卡，不存在时返回 nil。
func (s *DailyCheckService) ByDate(ctx context.Context, userID string, date time.Time) (*db.DailyCheck, error) {
	var check db.DailyCheck
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND check_date = ?", userID, normalizeToDate(date)).
		First(&check).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find daily check: %w", err)
	}
	return &check, nil
}

// History 按打卡日期倒序分页返回历史记录。
func (s *DailyCheckService) History(ctx context.Context, userID string, limit, offset int) ([]db.DailyCheck, error) {
	var checks []db.DailyCheck
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("check_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&checks).Error
	if err != nil {
		return nil, fmt.Errorf("list daily checks: %w", err)
	}
	return checks, nil
}

// normalizeToDate 丢弃时间部分，统一为 UTC 当日零点。
func normalizeToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
