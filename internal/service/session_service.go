package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sakialabs/makana/internal/db"
	"github.com/sakialabs/makana/internal/rules"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound 在会话不存在或不属于当前用户时返回
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotActive 在对已结束/已放弃的会话再操作时返回
	ErrSessionNotActive = errors.New("session is not active")
	// ErrActiveSessionExists 在用户已有进行中会话时返回
	ErrActiveSessionExists = errors.New("active session already exists")
)

// SessionService 负责会话生命周期：开始、结束、放弃与历史查询
// 同一用户的 Start 通过 per-user 锁串行化，避免检查后写入的竞争；
// 跨进程场景由 sessions 上的部分唯一索引兜底
type SessionService struct {
	db    *gorm.DB
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionService 构造 SessionService
func NewSessionService(gdb *gorm.DB) *SessionService {
	return &SessionService{db: gdb, locks: make(map[string]*sync.Mutex)}
}

func (s *SessionService) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// Start 开始一次会话（Ignition）。
// 已有进行中会话返回 ErrActiveSessionExists；配置不存在返回 ErrSetupNotFound。
// DurationMinutes 写入规则引擎给出的计划时长，减量模式状态取开始时刻的快照。
func (s *SessionService) Start(ctx context.Context, userID, setupID string) (*db.Session, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	active, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrActiveSessionExists
	}

	var setup db.Setup
	if err := s.db.WithContext(ctx).Where("id = ?", setupID).First(&setup).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSetupNotFound
		}
		return nil, fmt.Errorf("find setup: %w", err)
	}

	reduced := false
	var state db.ReducedModeState
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&state).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load reduced mode state: %w", err)
		}
	} else {
		reduced = state.IsActive
	}

	session := db.Session{
		UserID:            userID,
		SetupID:           setup.ID,
		StartTime:         time.Now().UTC(),
		DurationMinutes:   rules.SessionDuration(setup, reduced),
		Status:            db.SessionStatusActive,
		ReducedModeActive: reduced,
	}

	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		// 并发开始时输掉唯一索引的一方按冲突处理
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrActiveSessionExists
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &session, nil
}

// End 结束会话（Braking）。
// DurationMinutes 被覆写为实测的整分钟数；nextStep 非空时一并记录。
func (s *SessionService) End(ctx context.Context, sessionID, userID, nextStep string) (*db.Session, error) {
	session, err := s.owned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != db.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	now := time.Now().UTC()
	elapsedMinutes := int(now.Sub(session.StartTime) / time.Minute)

	updates := map[string]any{
		"end_time":         now,
		"duration_minutes": elapsedMinutes,
		"status":           db.SessionStatusCompleted,
		"updated_at":       now,
	}
	if trimmed := strings.TrimSpace(nextStep); trimmed != "" {
		updates["next_step"] = trimmed
	}

	if err := s.db.WithContext(ctx).Model(&db.Session{}).Where("id = ?", session.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	return s.owned(ctx, sessionID, userID)
}

// Abandon 放弃会话，不记录时长惩罚，也不写结束时间。
func (s *SessionService) Abandon(ctx context.Context, sessionID, userID string) (*db.Session, error) {
	session, err := s.owned(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != db.SessionStatusActive {
		return nil, ErrSessionNotActive
	}

	updates := map[string]any{
		"status":     db.SessionStatusAbandoned,
		"updated_at": time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Model(&db.Session{}).Where("id = ?", session.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("abandon session: %w", err)
	}

	return s.owned(ctx, sessionID, userID)
}

// Active 返回用户当前进行中的会话，不存在时返回 nil。
func (s *SessionService) Active(ctx context.Context, userID string) (*db.Session, error) {
	var session db.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, db.SessionStatusActive).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return &session, nil
}

// Recent 按创建时间倒序分页返回历史会话。
func (s *SessionService) Recent(ctx context.Context, userID string, limit, offset int) ([]db.Session, error) {
	var sessions []db.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionService) owned(ctx context.Context, sessionID, userID string) (*db.Session, error) {
	var session db.Session
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}
