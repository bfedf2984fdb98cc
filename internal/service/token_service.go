package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenService 设备上报令牌服务接口
type TokenService interface {
	// GenerateToken 签发/重签令牌（原子替换旧令牌）
	GenerateToken(ctx context.Context, req GenerateTokenRequest) (*GenerateTokenResponse, error)

	// GetToken 查询设备当前令牌
	GetToken(ctx context.Context, userID, deviceID string) (*domain.DeviceToken, error)

	// ValidateToken 上报鉴权：令牌有效且归属该设备时返回令牌记录
	ValidateToken(ctx context.Context, token, deviceID string) (*domain.DeviceToken, error)

	// RevokeToken 吊销设备令牌（设备删除时级联）
	RevokeToken(ctx context.Context, deviceID string) error
}

type tokenService struct {
	tokensRepo repository.TokensRepository
	ttl        time.Duration
	logger     *zap.Logger
}

// NewTokenService 创建 TokenService 实例
func NewTokenService(tokensRepo repository.TokensRepository, ttl time.Duration, logger *zap.Logger) TokenService {
	return &tokenService{
		tokensRepo: tokensRepo,
		ttl:        ttl,
		logger:     logger,
	}
}

// GenerateTokenRequest 签发令牌请求
type GenerateTokenRequest struct {
	UserID   string // 必填
	DeviceID string // 必填
}

// GenerateTokenResponse 签发令牌响应
type GenerateTokenResponse struct {
	Token *domain.DeviceToken
}

// GenerateToken 签发/重签设备令牌
// 不透明字符串（两段 UUID 去连字符），旧令牌随替换立即失效。
func (s *tokenService) GenerateToken(ctx context.Context, req GenerateTokenRequest) (*GenerateTokenResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if req.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	now := time.Now()
	token := &domain.DeviceToken{
		Token:     opaqueToken(),
		DeviceID:  req.DeviceID,
		UserID:    req.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.tokensRepo.ReplaceToken(ctx, token); err != nil {
		s.logger.Error("ReplaceToken failed",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to generate token")
	}

	return &GenerateTokenResponse{Token: token}, nil
}

func (s *tokenService) GetToken(ctx context.Context, userID, deviceID string) (*domain.DeviceToken, error) {
	if userID == "" || deviceID == "" {
		return nil, fmt.Errorf("user_id and device_id are required")
	}
	t, err := s.tokensRepo.GetTokenByDevice(ctx, userID, deviceID)
	if err == repository.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token")
	}
	return t, nil
}

// ValidateToken 上报鉴权
// 未知令牌、过期令牌、令牌与设备不符，统一返回 ErrTokenInvalid（不区分原因）。
func (s *tokenService) ValidateToken(ctx context.Context, token, deviceID string) (*domain.DeviceToken, error) {
	if token == "" || deviceID == "" {
		return nil, ErrTokenInvalid
	}
	t, err := s.tokensRepo.GetTokenByValue(ctx, token)
	if err == repository.ErrNotFound {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		s.logger.Error("GetTokenByValue failed", zap.Error(err))
		return nil, fmt.Errorf("failed to validate token")
	}
	if t.DeviceID != deviceID || t.Expired(time.Now()) {
		return nil, ErrTokenInvalid
	}
	return t, nil
}

func (s *tokenService) RevokeToken(ctx context.Context, deviceID string) error {
	return s.tokensRepo.DeleteTokenByDevice(ctx, deviceID)
}

func opaqueToken() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}
