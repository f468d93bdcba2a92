package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/firesales-next/internal/cache"
	"github.com/firesales-next/internal/config"
	"github.com/firesales-next/internal/constants"
	"github.com/firesales-next/internal/models"
	"github.com/firesales-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AgentAuthService 代理端认证服务
type AgentAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
}

// NewAgentAuthService 创建代理认证服务实例
func NewAgentAuthService(cfg *config.Config, userRepo repository.UserRepository) *AgentAuthService {
	return &AgentAuthService{cfg: cfg, userRepo: userRepo}
}

// AgentJWTClaims 代理端 JWT 声明
type AgentJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateAgentJWT 生成代理 JWT Token
func (s *AgentAuthService) GenerateAgentJWT(user *models.User) (string, time.Time, error) {
	expireHours := s.cfg.AgentJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)

	claims := AgentJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.AgentJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAgentJWT 解析代理 JWT Token
func (s *AgentAuthService) ParseAgentJWT(tokenString string) (*AgentJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AgentJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AgentJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AgentJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Login 代理登录，失败次数超过限流阈值时暂时拒绝
func (s *AgentAuthService) Login(email, password string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	if err := s.checkLoginRateLimit(normalized); err != nil {
		return nil, "", time.Time{}, err
	}

	user, err := s.userRepo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		s.recordLoginFailure(normalized)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if strings.ToLower(user.Status) != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLoginFailure(normalized)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateAgentJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetAgentAuthState(context.Background(), cache.BuildAgentAuthState(user))

	return user, token, expiresAt, nil
}

// ChangePassword 代理修改密码，成功后吊销全部已签发 Token
func (s *AgentAuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user.PasswordHash = string(hashedPassword)
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetAgentAuthState(context.Background(), cache.BuildAgentAuthState(user))
	return nil
}

func (s *AgentAuthService) checkLoginRateLimit(email string) error {
	limit := s.cfg.Security.LoginRateLimit
	if limit.MaxAttempts <= 0 || !cache.Enabled() {
		return nil
	}
	var count int64
	hit, err := cache.GetJSON(context.Background(), loginFailureKey(email), &count)
	if err != nil || !hit {
		return nil
	}
	if count >= int64(limit.MaxAttempts) {
		return ErrTooManyLoginAttempts
	}
	return nil
}

func (s *AgentAuthService) recordLoginFailure(email string) {
	limit := s.cfg.Security.LoginRateLimit
	if limit.MaxAttempts <= 0 || !cache.Enabled() {
		return
	}
	window := time.Duration(limit.WindowSeconds) * time.Second
	if window <= 0 {
		window = 5 * time.Minute
	}
	_, _ = cache.Incr(context.Background(), loginFailureKey(email), window)
}

func loginFailureKey(email string) string {
	return fmt.Sprintf("login:fail:%s", email)
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrValidation
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", ErrValidation
	}
	return trimmed, nil
}
