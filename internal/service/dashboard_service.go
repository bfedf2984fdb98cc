package service

import (
	"context"
	"fmt"
	"sync"

	"hydromet-data/internal/aggregator"
	"hydromet-data/internal/domain"

	"go.uber.org/zap"
)

// DashboardService 仪表盘聚合服务接口
type DashboardService interface {
	GetDashboard(ctx context.Context, req GetDashboardRequest) (*GetDashboardResponse, error)
}

type dashboardService struct {
	devices DeviceService
	logs    LogService
	logger  *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(devices DeviceService, logs LogService, logger *zap.Logger) DashboardService {
	return &dashboardService{
		devices: devices,
		logs:    logs,
		logger:  logger,
	}
}

// GetDashboardRequest 仪表盘请求
type GetDashboardRequest struct {
	UserID string // 必填
}

// GetDashboardResponse 仪表盘响应
type GetDashboardResponse struct {
	Devices      []*domain.Device
	DeviceStats  domain.DeviceStats
	WeatherStats domain.WeatherStats
}

// GetDashboard 加载仪表盘
// 设备列表和近期日志并发拉取（wait-for-all）：
// 设备是必需项，失败直接向上抛；日志只供告警计数，失败按空列表降级并告警。
func (s *dashboardService) GetDashboard(ctx context.Context, req GetDashboardRequest) (*GetDashboardResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	var (
		wg         sync.WaitGroup
		devices    []*domain.Device
		devicesErr error
		recentLogs []*domain.LogEvent
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		resp, err := s.devices.ListDevices(ctx, ListDevicesRequest{UserID: req.UserID})
		if err != nil {
			devicesErr = err
			return
		}
		devices = resp.Items
	}()
	go func() {
		defer wg.Done()
		resp, err := s.logs.ListLogs(ctx, ListLogsRequest{UserID: req.UserID})
		if err != nil {
			// 天气统计里的告警计数是可选项，拉取失败按空列表处理
			s.logger.Warn("Recent logs fetch failed, weather alert count degraded to zero",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			return
		}
		recentLogs = resp.Items
	}()
	wg.Wait()

	if devicesErr != nil {
		return nil, devicesErr
	}

	return &GetDashboardResponse{
		Devices:      devices,
		DeviceStats:  aggregator.AggregateFleet(devices),
		WeatherStats: aggregator.AggregateWeather(devices, recentLogs),
	}, nil
}
