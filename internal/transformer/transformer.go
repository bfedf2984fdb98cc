// Package transformer 提供设备记录归一化功能
//
// 迁移期并存两套动态数据来源，记录形状不同：
// - station：站点固件直报的嵌套文档（Redis 实时库保存的状态文档）
// - cloud：旧云端 REST 后端返回的扁平记录（snake_case，id_device 等旧字段名）
//
// 本包把两种形状收敛为同一个 canonical Device。来源由配置显式选择
// （封闭的 tagged variant 集合），不做逐条记录的形状嗅探。
package transformer

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"hydromet-data/internal/domain"
)

// 动态数据来源（封闭集合，按配置选择）
type Source string

const (
	SourceStation Source = "station"
	SourceCloud   Source = "cloud"
)

// ErrMalformedRecord 原始记录缺少标识字段（id）
// 调用方（fetch-all）应跳过该条并记日志，不中断整个集合。
var ErrMalformedRecord = errors.New("malformed record: missing device id")

// Defaults 归一化时缺失字段的显式默认值
type Defaults struct {
	Coordinates domain.Coordinates // 坐标缺失时的固定回退位置
	Threshold   float64            // 阈值缺失时的默认值（米）
	Battery     int                // 无电量遥测时的默认值
}

// FallbackCoordinates 坐标缺失时的固定回退位置（雅加达市中心）
// 刻意不用 {0,0}：零值坐标会把站点画到几内亚湾海面上。
var FallbackCoordinates = domain.Coordinates{Lat: -6.2088, Lng: 106.8456}

// DefaultDefaults 常用默认值
func DefaultDefaults(threshold float64) Defaults {
	return Defaults{
		Coordinates: FallbackCoordinates,
		Threshold:   threshold,
		Battery:     100,
	}
}

// Transformer 把一条原始后端记录转换为 canonical Device
// 纯映射，无 I/O；now/staleness 用于在线状态判定。
type Transformer interface {
	Transform(raw map[string]any, now time.Time, staleness time.Duration) (*domain.Device, error)
}

// New 按来源创建对应的转换器
func New(source Source, defaults Defaults) (Transformer, error) {
	switch source {
	case SourceStation:
		return NewStationTransformer(defaults), nil
	case SourceCloud:
		return NewCloudTransformer(defaults), nil
	default:
		return nil, fmt.Errorf("unknown sample source: %q", source)
	}
}

// toFloat 宽松数值转换（JSON 解码后数值是 float64，旧后端偶尔给字符串）
func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		return strconv.ParseFloat(val, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

// toInt 宽松整数转换
func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		return strconv.Atoi(val)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

// clampBattery 电量约束到 [0,100]
func clampBattery(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
