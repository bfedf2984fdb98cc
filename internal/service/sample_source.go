package service

import (
	"context"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/rest"
	"hydromet-data/internal/store"

	"go.uber.org/zap"
)

// SampleSource 动态设备数据来源
// 返回原始后端记录（map），由 transformer 归一化为 canonical Device。
// 两个实现对应配置中的两个 tagged variant：station / cloud。
type SampleSource interface {
	// FetchFleet 拉取用户全部设备的原始记录
	FetchFleet(ctx context.Context, userID string) ([]map[string]any, error)
	// FetchDevice 拉取单台设备的原始记录；不存在时返回 (nil, nil)
	FetchDevice(ctx context.Context, userID, deviceID string) (map[string]any, error)
}

// stationSampleSource 站点直报来源：注册表（Postgres）+ 实时状态文档（Redis）
// 把注册表的静态属性并入状态文档，归一化时文档即完整记录。
type stationSampleSource struct {
	devicesRepo repository.DevicesRepository
	samples     *repository.RealtimeSampleRepo
	logger      *zap.Logger
}

func NewStationSampleSource(
	devicesRepo repository.DevicesRepository,
	samples *repository.RealtimeSampleRepo,
	logger *zap.Logger,
) SampleSource {
	return &stationSampleSource{
		devicesRepo: devicesRepo,
		samples:     samples,
		logger:      logger,
	}
}

func (s *stationSampleSource) FetchFleet(ctx context.Context, userID string) ([]map[string]any, error) {
	rows, err := s.devicesRepo.ListDevices(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.compose(ctx, row))
	}
	return out, nil
}

func (s *stationSampleSource) FetchDevice(ctx context.Context, userID, deviceID string) (map[string]any, error) {
	row, err := s.devicesRepo.GetDevice(ctx, userID, deviceID)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.compose(ctx, row), nil
}

// compose 状态文档 + 注册表行 → 完整原始记录
// 注册表是静态属性的权威来源，覆盖文档里的同名字段。
func (s *stationSampleSource) compose(ctx context.Context, row *domain.Device) map[string]any {
	doc, err := s.samples.GetState(ctx, row.DeviceID)
	if err != nil && err != store.ErrCacheMiss {
		// 实时库故障按"从未上报"降级，注册表数据照常返回
		s.logger.Warn("Failed to get realtime state, degrading to registry only",
			zap.String("device_id", row.DeviceID),
			zap.Error(err),
		)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	doc["id"] = row.DeviceID
	doc["user_id"] = row.UserID
	doc["name"] = row.Name
	doc["location"] = row.Location
	doc["registration_date"] = row.RegistrationDate
	doc["threshold"] = row.Threshold
	// 注册表存的 (0,0) 视为未设置，留给归一化的固定回退坐标
	if row.Coordinates.Lat != 0 || row.Coordinates.Lng != 0 {
		doc["coordinates"] = map[string]any{
			"lat": row.Coordinates.Lat,
			"lng": row.Coordinates.Lng,
		}
	}
	if _, ok := doc["battery"]; !ok && row.BatteryLevel > 0 {
		doc["battery"] = row.BatteryLevel
	}
	if _, ok := doc["last_update"]; !ok && !row.LastUpdate.IsZero() {
		doc["last_update"] = row.LastUpdate.Unix()
	}
	return doc
}

// cloudSampleSource 旧云端来源：REST 后端返回完整扁平记录
type cloudSampleSource struct {
	client *rest.CloudClient
}

func NewCloudSampleSource(client *rest.CloudClient) SampleSource {
	return &cloudSampleSource{client: client}
}

func (s *cloudSampleSource) FetchFleet(ctx context.Context, userID string) ([]map[string]any, error) {
	return s.client.FetchDevices(ctx, userID)
}

func (s *cloudSampleSource) FetchDevice(ctx context.Context, userID, deviceID string) (map[string]any, error) {
	return s.client.FetchDevice(ctx, userID, deviceID)
}
