package repository

import (
	"context"

	"hydromet-data/internal/domain"
)

// LogsRepository 事件日志 Repository 接口
// append-only：只有追加、按 user 拉取最近 N 条、按 id 删除三种操作。
// 过滤是上层的纯函数，存储侧不做条件查询。
type LogsRepository interface {
	AppendLog(ctx context.Context, event *domain.LogEvent) error

	// ListRecentLogs 按时间倒序（最新在前）返回最近 limit 条
	ListRecentLogs(ctx context.Context, userID string, limit int) ([]*domain.LogEvent, error)

	GetLog(ctx context.Context, userID, logID string) (*domain.LogEvent, error)
	DeleteLog(ctx context.Context, userID, logID string) error
}
