package service

import (
	"context"
	"fmt"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/transformer"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeviceService 监测站管理服务接口
type DeviceService interface {
	// 查询（归一化后的 canonical Device）
	ListDevices(ctx context.Context, req ListDevicesRequest) (*ListDevicesResponse, error)
	GetDevice(ctx context.Context, req GetDeviceRequest) (*GetDeviceResponse, error)

	// 创建 / 更新 / 删除
	CreateDevice(ctx context.Context, req CreateDeviceRequest) (*CreateDeviceResponse, error)
	UpdateDevice(ctx context.Context, req UpdateDeviceRequest) (*UpdateDeviceResponse, error)
	DeleteDevice(ctx context.Context, req DeleteDeviceRequest) error
}

// deviceService 实现
type deviceService struct {
	devicesRepo repository.DevicesRepository
	logsRepo    repository.LogsRepository
	tokens      TokenService
	source      SampleSource
	trans       transformer.Transformer
	samples     *repository.RealtimeSampleRepo
	staleness   time.Duration
	logger      *zap.Logger
}

// NewDeviceService 创建 DeviceService 实例
// samples 允许为 nil（cloud 来源模式下没有实时库可清理）。
func NewDeviceService(
	devicesRepo repository.DevicesRepository,
	logsRepo repository.LogsRepository,
	tokens TokenService,
	source SampleSource,
	trans transformer.Transformer,
	samples *repository.RealtimeSampleRepo,
	staleness time.Duration,
	logger *zap.Logger,
) DeviceService {
	return &deviceService{
		devicesRepo: devicesRepo,
		logsRepo:    logsRepo,
		tokens:      tokens,
		source:      source,
		trans:       trans,
		samples:     samples,
		staleness:   staleness,
		logger:      logger,
	}
}

// ListDevicesRequest 查询设备列表请求
type ListDevicesRequest struct {
	UserID string // 必填
}

// ListDevicesResponse 查询设备列表响应
type ListDevicesResponse struct {
	Items []*domain.Device
}

// ListDevices 查询用户的归一化设备列表
// 单条记录畸形（缺 id）时跳过并记日志，不中断整个集合。
func (s *deviceService) ListDevices(ctx context.Context, req ListDevicesRequest) (*ListDevicesResponse, error) {
	// 1. 参数验证
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	// 2. 拉取原始记录
	records, err := s.source.FetchFleet(ctx, req.UserID)
	if err != nil {
		s.logger.Error("FetchFleet failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list devices")
	}

	// 3. 逐条归一化
	now := time.Now()
	items := make([]*domain.Device, 0, len(records))
	for _, raw := range records {
		d, err := s.trans.Transform(raw, now, s.staleness)
		if err != nil {
			s.logger.Warn("Skipping malformed device record",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
			continue
		}
		items = append(items, d)
	}

	return &ListDevicesResponse{Items: items}, nil
}

// GetDeviceRequest 查询设备详情请求
type GetDeviceRequest struct {
	UserID   string // 必填
	DeviceID string // 必填
}

// GetDeviceResponse 查询设备详情响应
type GetDeviceResponse struct {
	Device *domain.Device
}

// GetDevice 查询设备详情
// 归属校验 fail closed：记录归属与请求者不符时按不存在处理。
func (s *deviceService) GetDevice(ctx context.Context, req GetDeviceRequest) (*GetDeviceResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if req.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}

	raw, err := s.source.FetchDevice(ctx, req.UserID, req.DeviceID)
	if err != nil {
		s.logger.Error("FetchDevice failed",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get device")
	}
	if raw == nil {
		return nil, ErrNotFound
	}

	d, err := s.trans.Transform(raw, time.Now(), s.staleness)
	if err != nil {
		s.logger.Warn("Malformed device record",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
		return nil, ErrNotFound
	}
	// 旧云端来源的记录自带归属，再核对一次
	if d.UserID != "" && d.UserID != req.UserID {
		s.logger.Warn("Device ownership mismatch",
			zap.String("device_id", req.DeviceID),
			zap.String("requester", req.UserID),
		)
		return nil, ErrNotFound
	}

	return &GetDeviceResponse{Device: d}, nil
}

// CreateDeviceRequest 注册设备请求
type CreateDeviceRequest struct {
	UserID    string  // 必填
	Name      string  // 必填
	Location  string  // 可选
	Lat       float64 // 可选（0,0 视为未填，归一化时用固定回退坐标）
	Lng       float64
	Threshold float64 // 必填，> 0
}

// CreateDeviceResponse 注册设备响应
type CreateDeviceResponse struct {
	Device *domain.Device
	Token  *domain.DeviceToken // 初始上报令牌
}

// CreateDevice 注册设备
// 静态属性入库，动态属性保持零值/stable；同时签发初始上报令牌并记录事件。
func (s *deviceService) CreateDevice(ctx context.Context, req CreateDeviceRequest) (*CreateDeviceResponse, error) {
	// 1. 校验（任何写入之前）
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if req.Threshold <= 0 {
		return nil, &ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	if req.Lat < -90 || req.Lat > 90 {
		return nil, &ValidationError{Field: "lat", Reason: "must be within [-90, 90]"}
	}
	if req.Lng < -180 || req.Lng > 180 {
		return nil, &ValidationError{Field: "lng", Reason: "must be within [-180, 180]"}
	}

	now := time.Now()
	device := &domain.Device{
		DeviceID:         uuid.New().String(),
		UserID:           req.UserID,
		Name:             req.Name,
		Location:         req.Location,
		Coordinates:      domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		RegistrationDate: now.Format("2006-01-02"),
		Threshold:        req.Threshold,
		BatteryLevel:     100,
		Status:           domain.StatusOffline,
	}

	// 2. 入库
	if err := s.devicesRepo.CreateDevice(ctx, device); err != nil {
		s.logger.Error("CreateDevice failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create device")
	}

	// 3. 签发初始上报令牌
	tokenResp, err := s.tokens.GenerateToken(ctx, GenerateTokenRequest{
		UserID:   req.UserID,
		DeviceID: device.DeviceID,
	})
	if err != nil {
		s.logger.Error("Initial token issuance failed",
			zap.String("device_id", device.DeviceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to issue device token")
	}

	// 4. 记录事件（事件写入失败不算创建失败）
	s.appendEvent(ctx, device, domain.EventDeviceCreated, domain.SeverityLow,
		fmt.Sprintf("Device %q registered", device.Name))

	return &CreateDeviceResponse{Device: device, Token: tokenResp.Token}, nil
}

// UpdateDeviceRequest 更新设备请求
type UpdateDeviceRequest struct {
	UserID    string
	DeviceID  string
	Name      string
	Location  string
	Lat       float64
	Lng       float64
	Threshold float64
}

// UpdateDeviceResponse 更新设备响应
type UpdateDeviceResponse struct {
	Device *domain.Device
}

// UpdateDevice 更新设备静态属性
// 阈值变化单独记一条 configuration 事件（告警边界变化需要可审计）。
func (s *deviceService) UpdateDevice(ctx context.Context, req UpdateDeviceRequest) (*UpdateDeviceResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if req.DeviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "is required"}
	}
	if req.Threshold <= 0 {
		return nil, &ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	if req.Lat < -90 || req.Lat > 90 {
		return nil, &ValidationError{Field: "lat", Reason: "must be within [-90, 90]"}
	}
	if req.Lng < -180 || req.Lng > 180 {
		return nil, &ValidationError{Field: "lng", Reason: "must be within [-180, 180]"}
	}

	// 归属校验 + 取旧值（阈值对比用）
	existing, err := s.devicesRepo.GetDevice(ctx, req.UserID, req.DeviceID)
	if err == repository.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("GetDevice failed", zap.String("device_id", req.DeviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to update device")
	}

	device := &domain.Device{
		DeviceID:    req.DeviceID,
		UserID:      req.UserID,
		Name:        req.Name,
		Location:    req.Location,
		Coordinates: domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Threshold:   req.Threshold,
	}
	if err := s.devicesRepo.UpdateDevice(ctx, req.UserID, device); err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		s.logger.Error("UpdateDevice failed", zap.String("device_id", req.DeviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to update device")
	}

	s.appendEvent(ctx, device, domain.EventDeviceUpdated, domain.SeverityLow,
		fmt.Sprintf("Device %q updated", device.Name))
	if existing.Threshold != req.Threshold {
		s.appendEvent(ctx, device, domain.EventConfiguration, domain.SeverityMedium,
			fmt.Sprintf("Alert threshold changed from %.2fm to %.2fm", existing.Threshold, req.Threshold))
	}

	return &UpdateDeviceResponse{Device: device}, nil
}

// DeleteDeviceRequest 删除设备请求
type DeleteDeviceRequest struct {
	UserID   string
	DeviceID string
}

// DeleteDevice 删除设备
// 级联：上报令牌、实时状态文档一并删除，并记录 device_deleted 事件。
func (s *deviceService) DeleteDevice(ctx context.Context, req DeleteDeviceRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if req.DeviceID == "" {
		return fmt.Errorf("device_id is required")
	}

	// 归属校验（fail closed）+ 取展示名做日志快照
	existing, err := s.devicesRepo.GetDevice(ctx, req.UserID, req.DeviceID)
	if err == repository.ErrNotFound {
		return ErrNotFound
	}
	if err != nil {
		s.logger.Error("GetDevice failed", zap.String("device_id", req.DeviceID), zap.Error(err))
		return fmt.Errorf("failed to delete device")
	}

	if err := s.devicesRepo.DeleteDevice(ctx, req.UserID, req.DeviceID); err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		s.logger.Error("DeleteDevice failed", zap.String("device_id", req.DeviceID), zap.Error(err))
		return fmt.Errorf("failed to delete device")
	}

	// 级联清理（失败只记日志，主删除已经生效）
	if err := s.tokens.RevokeToken(ctx, req.DeviceID); err != nil {
		s.logger.Warn("Failed to revoke device token",
			zap.String("device_id", req.DeviceID),
			zap.Error(err),
		)
	}
	if s.samples != nil {
		if err := s.samples.DeleteState(ctx, req.DeviceID); err != nil {
			s.logger.Warn("Failed to delete realtime state",
				zap.String("device_id", req.DeviceID),
				zap.Error(err),
			)
		}
	}

	s.appendEvent(ctx, existing, domain.EventDeviceDeleted, domain.SeverityMedium,
		fmt.Sprintf("Device %q deleted", existing.Name))

	return nil
}

// appendEvent 追加一条事件日志（失败只告警，不影响主流程）
func (s *deviceService) appendEvent(ctx context.Context, device *domain.Device, eventType, severity, message string) {
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
