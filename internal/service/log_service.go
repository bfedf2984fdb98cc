package service

import (
	"context"
	"fmt"
	"time"

	"hydromet-data/internal/aggregator"
	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"

	"go.uber.org/zap"
)

// 一次取回的日志上限（过滤在内存里做，存储侧只管"最近 N 条"）
const recentLogsLimit = 500

// LogService 事件日志服务接口
type LogService interface {
	ListLogs(ctx context.Context, req ListLogsRequest) (*ListLogsResponse, error)
	DeleteLog(ctx context.Context, req DeleteLogRequest) error
}

type logService struct {
	logsRepo repository.LogsRepository
	logger   *zap.Logger
}

// NewLogService 创建 LogService 实例
func NewLogService(logsRepo repository.LogsRepository, logger *zap.Logger) LogService {
	return &logService{
		logsRepo: logsRepo,
		logger:   logger,
	}
}

// ListLogsRequest 查询日志请求
type ListLogsRequest struct {
	UserID   string // 必填
	Criteria aggregator.LogFilterCriteria
}

// ListLogsResponse 查询日志响应
type ListLogsResponse struct {
	Items []*domain.LogEvent // 最新在前
	Total int                // 过滤后的条数
}

// ListLogs 查询事件日志
// 存储侧返回最近 N 条（时间倒序），过滤条件在内存里用纯函数应用；
// 同一份基础集合可带不同条件反复过滤。
func (s *logService) ListLogs(ctx context.Context, req ListLogsRequest) (*ListLogsResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	logs, err := s.logsRepo.ListRecentLogs(ctx, req.UserID, recentLogsLimit)
	if err != nil {
		s.logger.Error("ListRecentLogs failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list logs")
	}

	filtered := aggregator.FilterLogs(logs, req.Criteria, time.Now())
	return &ListLogsResponse{
		Items: filtered,
		Total: len(filtered),
	}, nil
}

// DeleteLogRequest 删除日志请求
type DeleteLogRequest struct {
	UserID string
	LogID  string
}

// DeleteLog 删除单条日志
// 归属校验由 SQL 条件保证：别人的日志一律按不存在处理。
func (s *logService) DeleteLog(ctx context.Context, req DeleteLogRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if req.LogID == "" {
		return fmt.Errorf("log_id is required")
	}

	err := s.logsRepo.DeleteLog(ctx, req.UserID, req.LogID)
	if err == repository.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		s.logger.Error("DeleteLog failed",
			zap.String("log_id", req.LogID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete log")
	}
	return nil
}
