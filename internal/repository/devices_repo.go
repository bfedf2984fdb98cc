package repository

import (
	"context"
	"errors"

	"hydromet-data/internal/domain"
)

// ErrNotFound 实体不存在（或不属于请求者，越权按不存在处理）
var ErrNotFound = errors.New("not found")

// DevicesRepository 设备注册表 Repository 接口
// 使用强类型领域模型，不使用 map[string]any。
// 只负责静态属性和遥测快照（电量、最近上报时间）；
// 传感器通道的动态数据走实时库 / 旧云端。
type DevicesRepository interface {
	// 查询
	ListDevices(ctx context.Context, userID string) ([]*domain.Device, error)
	GetDevice(ctx context.Context, userID, deviceID string) (*domain.Device, error)

	// 创建
	CreateDevice(ctx context.Context, device *domain.Device) error

	// 更新（静态属性）
	UpdateDevice(ctx context.Context, userID string, device *domain.Device) error

	// 更新遥测快照（设备上报时调用）
	UpdateTelemetry(ctx context.Context, deviceID string, batteryLevel int, lastUpdateUnix int64) error

	// 删除（物理删除，token 级联删除由调用方负责）
	DeleteDevice(ctx context.Context, userID, deviceID string) error
}
