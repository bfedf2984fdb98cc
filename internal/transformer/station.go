package transformer

import (
	"time"

	"hydromet-data/internal/aggregator"
	"hydromet-data/internal/domain"
)

// StationTransformer 站点直报文档转换器
//
// 输入是实时库中保存的站点状态文档（嵌套形状）：
//
//	{
//	  "id": "dev-001",
//	  "user_id": "u-1",
//	  "name": "Bendung Katulampa",
//	  "location": "Bogor",
//	  "coordinates": {"lat": -6.63, "lng": 106.84},
//	  "threshold": 2.5,
//	  "battery": 87,
//	  "last_update": 1712345678,
//	  "registration_date": "2026-01-02",
//	  "sensors": {
//	    "water_level": {"value": 1.2, "previous": 1.05},
//	    "rainfall":    {"value": 3.0, "previous": 3.0},
//	    ...
//	  }
//	}
type StationTransformer struct {
	defaults Defaults
}

// NewStationTransformer 创建站点文档转换器
func NewStationTransformer(defaults Defaults) *StationTransformer {
	return &StationTransformer{defaults: defaults}
}

// Transform 转换站点状态文档为 canonical Device
func (t *StationTransformer) Transform(raw map[string]any, now time.Time, staleness time.Duration) (*domain.Device, error) {
	id, ok := raw["id"].(string)
	if !ok || id == "" {
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
	if v, ok := raw["battery"]; ok {
		if i, err := toInt(v); err == nil {
			d.BatteryLevel = clampBattery(i)
		}
	}
	if coords, ok := raw["coordinates"].(map[string]any); ok {
		lat, latErr := toFloat(coords["lat"])
		lng, lngErr := toFloat(coords["lng"])
		if latErr == nil && lngErr == nil {
			d.Coordinates = domain.Coordinates{Lat: lat, Lng: lng}
		}
	}
	if v, ok := raw["last_update"]; ok {
		if ts, err := toInt(v); err == nil && ts > 0 {
			d.LastUpdate = time.Unix(int64(ts), 0)
		}
	}

	sensors, _ := raw["sensors"].(map[string]any)
	d.WaterLevel = stationChannel(sensors, "water_level", aggregator.EpsilonWaterLevel)
	d.Rainfall = stationChannel(sensors, "rainfall", aggregator.EpsilonRainfall)
	d.Temperature = stationChannel(sensors, "temperature", aggregator.EpsilonTemperature)
	d.Humidity = stationChannel(sensors, "humidity", aggregator.EpsilonHumidity)
	d.WindSpeed = stationChannel(sensors, "wind_speed", aggregator.EpsilonWindSpeed)
	d.Pressure = stationChannel(sensors, "pressure", aggregator.EpsilonPressure)

	d.Status = aggregator.ClassifyStatus(d.LastUpdate, now, staleness)

	return d, nil
}

// stationChannel 提取单个通道并推导趋势
// 通道缺失时返回零值读数（value=0, stable）；
// previous 缺失时当前样本作为自身基线。
func stationChannel(sensors map[string]any, key string, epsilon float64) domain.SensorReading {
	entry, ok := sensors[key].(map[string]any)
	if !ok {
		return aggregator.ClassifyTrendBaseline(0)
	}
	current, err := toFloat(entry["value"])
	if err != nil {
		return aggregator.ClassifyTrendBaseline(0)
	}
	prevRaw, ok := entry["previous"]
	if !ok {
		return aggregator.ClassifyTrendBaseline(current)
	}
	previous, err := toFloat(prevRaw)
	if err != nil {
		return aggregator.ClassifyTrendBaseline(current)
	}
	return aggregator.ClassifyTrend(current, previous, epsilon)
}
