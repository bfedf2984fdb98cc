package transformer

import (
	"time"

	"hydromet-data/internal/aggregator"
	"hydromet-data/internal/domain"
)

// CloudTransformer 旧云端 REST 记录转换器
//
// 输入是旧后端 /api/devices 返回的扁平记录（snake_case，旧字段名）：
//
//	{
//	  "id_device": "dev-001",
//	  "user_id": "u-1",
//	  "name": "Bendung Katulampa",
//	  "location": "Bogor",
//	  "latitude": -6.63, "longitude": 106.84,
//	  "registration_date": "2026-01-02",
//	  "threshold": 2.5,
//	  "battery_level": 87,
//	  "updated_at": "2026-04-05T10:14:38Z",
//	  "water_level": 1.2, "prev_water_level": 1.05,
//	  "rainfall": 3.0,   "prev_rainfall": 3.0,
//	  ...
//	}
//
// 个别老记录用 "id" 而不是 "id_device"，两个都认。
type CloudTransformer struct {
	defaults Defaults
}

// NewCloudTransformer 创建旧云端记录转换器
func NewCloudTransformer(defaults Defaults) *CloudTransformer {
	return &CloudTransformer{defaults: defaults}
}

// Transform 转换旧云端记录为 canonical Device
func (t *CloudTransformer) Transform(raw map[string]any, now time.Time, staleness time.Duration) (*domain.Device, error) {
	id, _ := raw["id_device"].(string)
	if id == "" {
		id, _ = raw["id"].(string)
	}
	if id == "" {
		return nil, ErrMalformedRecord
	}

	d := &domain.Device{
		DeviceID:     id,
		Threshold:    t.defaults.Threshold,
		Coordinates:  t.defaults.Coordinates,
		BatteryLevel: t.defaults.Battery,
	}

	if v, ok := raw["user_id"].(string); ok {
		d.UserID = v
	}
	if v, ok := raw["name"].(string); ok {
		d.Name = v
	}
	if v, ok := raw["location"].(string); ok {
		d.Location = v
	}
	if v, ok := raw["registration_date"].(string); ok {
		d.RegistrationDate = v
	}
	if v, ok := raw["threshold"]; ok {
		if f, err := toFloat(v); err == nil && f > 0 {
			d.Threshold = f
		}
	}
	// 旧后端没有电量遥测的记录直接缺 battery_level 字段
	if v, ok := raw["battery_level"]; ok {
		if i, err := toInt(v); err == nil {
			d.BatteryLevel = clampBattery(i)
		}
	}
	lat, latOK := raw["latitude"]
	lng, lngOK := raw["longitude"]
	if latOK && lngOK {
		latF, latErr := toFloat(lat)
		lngF, lngErr := toFloat(lng)
		if latErr == nil && lngErr == nil {
			d.Coordinates = domain.Coordinates{Lat: latF, Lng: lngF}
		}
	}
	if v, ok := raw["updated_at"].(string); ok && v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			d.LastUpdate = ts
		}
	}

	d.WaterLevel = cloudChannel(raw, "water_level", aggregator.EpsilonWaterLevel)
	d.Rainfall = cloudChannel(raw, "rainfall", aggregator.EpsilonRainfall)
	d.Temperature = cloudChannel(raw, "temperature", aggregator.EpsilonTemperature)
	d.Humidity = cloudChannel(raw, "humidity", aggregator.EpsilonHumidity)
	d.WindSpeed = cloudChannel(raw, "wind_speed", aggregator.EpsilonWindSpeed)
	d.Pressure = cloudChannel(raw, "pressure", aggregator.EpsilonPressure)

	d.Status = aggregator.ClassifyStatus(d.LastUpdate, now, staleness)

	return d, nil
}

// cloudChannel 提取扁平字段对（key / prev_key）并推导趋势
func cloudChannel(raw map[string]any, key string, epsilon float64) domain.SensorReading {
	v, ok := raw[key]
	if !ok {
		return aggregator.ClassifyTrendBaseline(0)
	}
	current, err := toFloat(v)
	if err != nil {
		return aggregator.ClassifyTrendBaseline(0)
	}
	prevRaw, ok := raw["prev_"+key]
	if !ok {
		return aggregator.ClassifyTrendBaseline(current)
	}
	previous, err := toFloat(prevRaw)
	if err != nil {
		return aggregator.ClassifyTrendBaseline(current)
	}
	return aggregator.ClassifyTrend(current, previous, epsilon)
}
