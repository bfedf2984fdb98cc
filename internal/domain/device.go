package domain

import (
	"time"
)

// Trend 传感器读数的变化趋势
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// 设备在线状态
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Coordinates 站点坐标（十进制度）
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SensorReading 单通道传感器读数
// Trend/Change 永远是读取时由当前值和上一次值推导，不作为权威状态持久化。
type SensorReading struct {
	Value  float64 `json:"value"`
	Trend  Trend   `json:"trend"`
	Change float64 `json:"change"`
}

// Device 监测站领域模型（canonical 形状）
// 静态属性对应 devices 表；动态属性（传感器通道、状态、电量）
// 每次读取时由实时样本归一化得到。
type Device struct {
	// 主键和归属
	DeviceID string `db:"device_id"`
	UserID   string `db:"user_id"` // NOT NULL

	// 静态属性
	Name             string      `db:"device_name"` // NOT NULL
	Location         string      `db:"location"`
	Coordinates      Coordinates // latitude/longitude 两列
	RegistrationDate string      `db:"registration_date"` // 日历日期字符串（YYYY-MM-DD）
	Threshold        float64     `db:"threshold"`         // 水位告警阈值（米），> 0

	// 动态属性（传感器通道）
	WaterLevel  SensorReading `json:"waterLevel"`
	Rainfall    SensorReading `json:"rainfall"`
	Temperature SensorReading `json:"temperature"`
	Humidity    SensorReading `json:"humidity"`
	WindSpeed   SensorReading `json:"windSpeed"`
	Pressure    SensorReading `json:"pressure"`

	// 派生属性
	Status       string    `db:"-"` // online / offline，由 lastUpdate 推导
	LastUpdate   time.Time `db:"last_update"`
	BatteryLevel int       `db:"battery_level"` // 0-100
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (d *Device) ToJSON() map[string]any {
	m := map[string]any{
		"device_id":         d.DeviceID,
		"user_id":           d.UserID,
		"device_name":       d.Name,
		"location":          d.Location,
		"coordinates":       d.Coordinates,
		"registration_date": d.RegistrationDate,
		"threshold":         d.Threshold,
		"status":            d.Status,
		"battery_level":     d.BatteryLevel,
		"sensors": map[string]any{
			"water_level": d.WaterLevel,
			"rainfall":    d.Rainfall,
			"temperature": d.Temperature,
			"humidity":    d.Humidity,
			"wind_speed":  d.WindSpeed,
			"pressure":    d.Pressure,
		},
	}
	if d.LastUpdate.IsZero() {
		m["last_update"] = nil
	} else {
		m["last_update"] = d.LastUpdate.UTC().Format(time.RFC3339)
	}
	return m
}
