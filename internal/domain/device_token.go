package domain

import "time"

// DeviceToken 设备上报凭证
// 每台设备同一时刻只有一个有效 token，重新签发是原子替换而不是追加。
type DeviceToken struct {
	Token     string    `db:"token"`
	DeviceID  string    `db:"device_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired 判断 token 是否已过期
func (t *DeviceToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (t *DeviceToken) ToJSON() map[string]any {
	return map[string]any{
		"token":      t.Token,
		"device_id":  t.DeviceID,
		"user_id":    t.UserID,
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at": t.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
