package repository

import (
	"context"
	"database/sql"

	"hydromet-data/internal/domain"

	"go.uber.org/zap"
)

type PostgresTokensRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresTokensRepo(db *sql.DB, logger *zap.Logger) *PostgresTokensRepo {
	return &PostgresTokensRepo{db: db, logger: logger}
}

// ReplaceToken 原子替换设备令牌（device_id 是主键，冲突即覆盖）
func (r *PostgresTokensRepo) ReplaceToken(ctx context.Context, token *domain.DeviceToken) error {
	q := `
		INSERT INTO device_tokens (device_id, user_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO UPDATE
		SET token = EXCLUDED.token,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, q,
		token.DeviceID,
		token.UserID,
		token.Token,
		token.CreatedAt,
		token.ExpiresAt,
	)
	return err
}

func (r *PostgresTokensRepo) GetTokenByDevice(ctx context.Context, userID, deviceID string) (*domain.DeviceToken, error) {
	q := `
		SELECT token, device_id, user_id, created_at, expires_at
		FROM device_tokens
		WHERE user_id = $1 AND device_id = $2
	`
	return r.scanToken(r.db.QueryRowContext(ctx, q, userID, deviceID))
}

func (r *PostgresTokensRepo) GetTokenByValue(ctx context.Context, token string) (*domain.DeviceToken, error) {
	q := `
		SELECT token, device_id, user_id, created_at, expires_at
		FROM device_tokens
		WHERE token = $1
	`
	return r.scanToken(r.db.QueryRowContext(ctx, q, token))
}

func (r *PostgresTokensRepo) DeleteTokenByDevice(ctx context.Context, deviceID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM device_tokens WHERE device_id = $1`, deviceID)
	return err
}

func (r *PostgresTokensRepo) scanToken(row *sql.Row) (*domain.DeviceToken, error) {
	var t domain.DeviceToken
	err := row.Scan(&t.Token, &t.DeviceID, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
