package service

import (
	"context"
	"fmt"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 上报样本里认可的通道名
var sensorChannels = []string{
	"water_level", "rainfall", "temperature", "humidity", "wind_speed", "pressure",
}

// IngestRequest 一次传感器样本上报
type IngestRequest struct {
	DeviceID  string
	Token     string             // 设备上报令牌
	Values    map[string]float64 // 通道名 → 采样值（可部分上报）
	Battery   *int               // 可选，电量百分比
	Timestamp int64              // unix 秒；0 表示取服务端当前时间
}

// IngestService 传感器样本接收服务接口
// HTTP 上报和 MQTT 直报共用同一实现。
type IngestService interface {
	Ingest(ctx context.Context, req IngestRequest) error
}

type ingestService struct {
	devicesRepo repository.DevicesRepository
	logsRepo    repository.LogsRepository
	tokens      TokenService
	samples     *repository.RealtimeSampleRepo
	staleness   time.Duration
	logger      *zap.Logger
}

// NewIngestService 创建 IngestService 实例
func NewIngestService(
	devicesRepo repository.DevicesRepository,
	logsRepo repository.LogsRepository,
	tokens TokenService,
	samples *repository.RealtimeSampleRepo,
	staleness time.Duration,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		devicesRepo: devicesRepo,
		logsRepo:    logsRepo,
		tokens:      tokens,
		samples:     samples,
		staleness:   staleness,
		logger:      logger,
	}
}

// Ingest 处理一次样本上报
//  1. 令牌鉴权（无效即拒绝，不落任何数据）
//  2. 轮转状态文档：本次值写入 value，上次值挪到 previous
//  3. 更新注册表遥测快照（电量、最近上报时间）
//  4. 水位向上越过阈值时记 threshold/high 事件；
//     离线转在线时记 connection/low 事件
func (s *ingestService) Ingest(ctx context.Context, req IngestRequest) error {
	token, err := s.tokens.ValidateToken(ctx, req.Token, req.DeviceID)
	if err != nil {
		return err
	}

	device, err := s.devicesRepo.GetDevice(ctx, token.UserID, req.DeviceID)
	if err == repository.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		s.logger.Error("GetDevice failed during ingest",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to ingest sample")
	}

	now := time.Now()
	ts := req.Timestamp
	if ts <= 0 {
		ts = now.Unix()
	}

	// 读取现有状态文档（没有就从空文档开始）
	doc, err := s.samples.GetState(ctx, req.DeviceID)
	if err != nil && err != store.ErrCacheMiss {
		s.logger.Warn("Failed to load existing state, starting fresh",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	// 上报前的在线状态（连接事件判定用）
	prevLastUpdate := time.Time{}
	if v, ok := doc["last_update"]; ok {
		if f, ok := v.(float64); ok && f > 0 {
			prevLastUpdate = time.Unix(int64(f), 0)
		}
	}
	wasOffline := prevLastUpdate.IsZero() || now.Sub(prevLastUpdate) >= s.staleness

	sensors, _ := doc["sensors"].(map[string]any)
	if sensors == nil {
		sensors = map[string]any{}
	}

	prevWaterLevel, hadWaterLevel := channelValue(sensors, "water_level")

	// 轮转：上报的通道写入新值，原值挪到 previous；未上报的通道保持原样
	for _, ch := range sensorChannels {
		v, ok := req.Values[ch]
		if !ok {
			continue
		}
		previous := v
		if old, ok := channelValue(sensors, ch); ok {
			previous = old
		}
		sensors[ch] = map[string]any{"value": v, "previous": previous}
	}
	doc["sensors"] = sensors
	doc["id"] = req.DeviceID
	doc["last_update"] = ts

	battery := device.BatteryLevel
	if req.Battery != nil {
		battery = *req.Battery
		if battery < 0 {
			battery = 0
		}
		if battery > 100 {
			battery = 100
		}
	}
	doc["battery"] = battery

	if err := s.samples.PutState(ctx, req.DeviceID, doc); err != nil {
		s.logger.Error("PutState failed",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to ingest sample")
	}

	if err := s.devicesRepo.UpdateTelemetry(ctx, req.DeviceID, battery, ts); err != nil {
		s.logger.Warn("UpdateTelemetry failed",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
	}

	// 事件：水位向上越过阈值
	if newWL, ok := req.Values["water_level"]; ok && newWL >= device.Threshold {
		if !hadWaterLevel || prevWaterLevel < device.Threshold {
			s.appendEvent(ctx, device, domain.EventThreshold, domain.SeverityHigh,
				fmt.Sprintf("Water level %.2fm exceeded threshold %.2fm", newWL, device.Threshold))
		}
	}

	// 事件：离线 → 在线
	if wasOffline {
		s.appendEvent(ctx, device, domain.EventConnection, domain.SeverityLow,
			fmt.Sprintf("Device %q back online", device.Name))
	}

	return nil
}

// channelValue 取通道当前值
func channelValue(sensors map[string]any, ch string) (float64, bool) {
	entry, ok := sensors[ch].(map[string]any)
	if !ok {
		return 0, false
	}
	v, ok := entry["value"].(float64)
	return v, ok
}

func (s *ingestService) appendEvent(ctx context.Context, device *domain.Device, eventType, severity, message string) {
	event := &domain.LogEvent{
		LogID:      uuid.New().String(),
		DeviceID:   device.DeviceID,
		UserID:     device.UserID,
		Type:       eventType,
		Severity:   severity,
		Message:    message,
		DeviceName: device.Name,
		Timestamp:  time.Now(),
	}
	if err := s.logsRepo.AppendLog(ctx, event); err != nil {
		s.logger.Warn("Failed to append log event",
			zap.String("device_id", device.DeviceID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
