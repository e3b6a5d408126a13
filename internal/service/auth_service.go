package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sakialabs/makana/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrEmailTaken 在注册邮箱已存在时返回
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 在邮箱或密码不匹配时返回
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken 在令牌无效或过期时返回
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrProfileNotFound 在用户档案不存在时返回
	ErrProfileNotFound = errors.New("profile not found")
)

const (
	tokenAudience   = "authenticated"
	refreshTokenUse = "refresh"
)

// CurrentUser 是令牌校验后的身份结果，核心服务只消费这里的 ID
type CurrentUser struct {
	ID    string
	Email string
}

// TokenPair 打包签发结果，ExpiresIn 为访问令牌有效期（秒）
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         CurrentUser
}

// AuthService 负责注册、登录、令牌签发与校验
// 令牌为 HS256 JWT；密码以 bcrypt 哈希入库，明文不落地
type AuthService struct {
	db         *gorm.DB
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB, secret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{db: gdb, secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// SignUp 创建账号并签发令牌。
// 邮箱已注册时返回 ErrEmailTaken。
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := db.UserProfile{Email: email, PasswordHash: string(hashed)}
	if err := s.db.WithContext(ctx).Create(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return s.issue(profile)
}

// SignIn 校验凭据并签发令牌。
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var profile db.UserProfile
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(profile)
}

// Refresh 用刷新令牌换取新的令牌对。
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if use, _ := claims["token_use"].(string); use != refreshTokenUse {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	var profile db.UserProfile
	if err := s.db.WithContext(ctx).Where("id = ?", sub).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}

	return s.issue(profile)
}

// VerifyToken 校验访问令牌并返回持有者身份。
func (s *AuthService) VerifyToken(token string) (*CurrentUser, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if use, _ := claims["token_use"].(string); use == refreshTokenUse {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return nil, ErrInvalidToken
	}

	return &CurrentUser{ID: sub, Email: email}, nil
}

// Profile 返回用户档案。
func (s *AuthService) Profile(ctx context.Context, userID string) (*db.UserProfile, error) {
	var profile db.UserProfile
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

func (s *AuthService) issue(profile db.UserProfile) (*TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.sign(jwt.MapClaims{
		"sub":   profile.ID,
		"email": profile.Email,
		"aud":   tokenAudience,
		"role":  tokenAudience,
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(jwt.MapClaims{
		"sub":       profile.ID,
		"email":     profile.Email,
		"aud":       tokenAudience,
		"token_use": refreshTokenUse,
		"iat":       now.Unix(),
		"exp":       now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessTTL / time.Second),
		User:         CurrentUser{ID: profile.ID, Email: profile.Email},
	}, nil
}

func (s *AuthService) sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parse(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithAudience(tokenAudience), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
