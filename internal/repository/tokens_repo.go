package repository

import (
	"context"

	"hydromet-data/internal/domain"
)

// TokensRepository 设备令牌 Repository 接口
// 一台设备只有一个有效 token：ReplaceToken 是原子替换（upsert），不追加。
type TokensRepository interface {
	ReplaceToken(ctx context.Context, token *domain.DeviceToken) error
	GetTokenByDevice(ctx context.Context, userID, deviceID string) (*domain.DeviceToken, error)

	// GetTokenByValue 上报鉴权路径：按 token 值查找，不带 user 条件
	GetTokenByValue(ctx context.Context, token string) (*domain.DeviceToken, error)

	DeleteTokenByDevice(ctx context.Context, deviceID string) error
}
