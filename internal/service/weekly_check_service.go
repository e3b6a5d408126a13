package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/rules"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WeeklyCheckService 负责每周反思：聚合一周数据、产出洞察与建议并在创建时冻结
type WeeklyCheckService struct {
	db *gorm.DB
}

// NewWeeklyCheckService 构造 WeeklyCheckService
func NewWeeklyCheckService(gdb *gorm.DB) *WeeklyCheckService {
	return &WeeklyCheckService{db: gdb}
}

// Create 创建本周反思。
// 以创建时刻所在的周一到周日为边界聚合数据，洞察与减量建议由规则引擎算出后
// 随记录落库，之后读取不再重算。
func (s *WeeklyCheckService) Create(ctx context.Context, userID string, responses map[string]any) (*db.WeeklyCheck, error) {
	now := time.Now().UTC()
	monday, sunday := weekBounds(now)

	stats, err := s.weekStats(ctx, userID, monday, sunday)
	if err != nil {
		return nil, err
	}

	check := db.WeeklyCheck{
		UserID:        userID,
		WeekStartDate: monday,
		WeekEndDate:   sunday,
		Responses:     datatypes.JSONMap(responses),
		CompletedAt:   now,
	}

	if insight := rules.GenerateInsight(stats); insight != "" {
		check.Insight = &insight
	}
	if rules.ShouldRecommendReducedMode(stats) {
		recommendation := rules.ReducedModeRecommendation
		check.ScopeRecommendation = &recommendation
	}

	if err := s.db.WithContext(ctx).Create(&check).Error; err != nil {
		return nil, fmt.Errorf("create weekly check: %w", err)
	}

	return &check, nil
}

// Latest 返回最近一条每周反思，不存在时返回 nil。
func (s *WeeklyCheckService) Latest(ctx context.Context, userID string) (*db.WeeklyCheck, error) {
	var check db.WeeklyCheck
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start_date DESC").
		First(&check).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest weekly check: %w", err)
	}
	return &check, nil
}

// History 按周起始日倒序分页返回历史记录。
func (s *WeeklyCheckService) History(ctx context.Context, userID string, limit, offset int) ([]db.WeeklyCheck, error) {
	var checks []db.WeeklyCheck
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&checks).Error
	if err != nil {
		return nil, fmt.Errorf("list weekly checks: %w", err)
	}
	return checks, nil
}

// weekStats 聚合一周内的会话与打卡数据。
// 会话按创建时间落在 [monday, monday+7d) 计，打卡按日期落在周一到周日（含）计。
func (s *WeeklyCheckService) weekStats(ctx context.Context, userID string, monday, sunday time.Time) (rules.WeekStats, error) {
	var stats rules.WeekStats

	var sessions []db.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, monday, monday.AddDate(0, 0, 7)).
		Find(&sessions).Error
	if err != nil {
		return stats, fmt.Errorf("list week sessions: %w", err)
	}

	for _, session := range sessions {
		switch session.Status {
		case db.SessionStatusCompleted:
			stats.SessionsCompleted++
			if session.NextStep != nil && *session.NextStep != "" {
				stats.SessionsWithNextStep++
			}
		case db.SessionStatusAbandoned:
			stats.SessionsAbandoned++
		}
	}

	var checkCount int64
	err = s.db.WithContext(ctx).
		Model(&db.DailyCheck{}).
		Where("user_id = ? AND check_date >= ? AND check_date <= ?", userID, monday, sunday).
		Count(&checkCount).Error
	if err != nil {
		return stats, fmt.Errorf("count week daily checks: %w", err)
	}
	stats.DailyChecksCompleted = int(checkCount)

	return stats, nil
}

// weekBounds 返回 today 所在周的周一和周日（UTC 零点），周以周一为起点。
func weekBounds(today time.Time) (monday, sunday time.Time) {
	day := normalizeToDate(today)
	offset := (int(day.Weekday()) + 6) % 7
	monday = day.AddDate(0, 0, -offset)
	sunday = monday.AddDate(0, 0, 6)
	return monday, sunday
}
