package aggregator

import (
	"math"

	"hydromet-data/internal/domain"
)

// 极端事件判定边界
const (
	ExtremeTemperature = 35.0 // 摄氏度
	ExtremeRainfall    = 50.0 // 毫米
)

// AggregateWeather 将设备列表和近期告警日志折叠为 WeatherStats
// 温度均值和降雨量求和只统计在线设备；零台在线时两项为 0。
// ExtremeEvents 统计全部设备：离线设备的最后读数仍然算极端事件。
// recentAlerts 允许为 nil（告警拉取失败时按空列表降级处理）。
func AggregateWeather(devices []*domain.Device, recentAlerts []*domain.LogEvent) domain.WeatherStats {
	stats := domain.WeatherStats{}

	tempSum := 0.0
	rainSum := 0.0
	onlineCount := 0
	for _, d := range devices {
		if d.Status == domain.StatusOnline {
			onlineCount++
			tempSum += d.Temperature.Value
			rainSum += d.Rainfall.Value
		}
		// 极端事件：水位超过阈值（开区间）、高温、强降雨
		if d.WaterLevel.Value > d.Threshold ||
			d.Temperature.Value > ExtremeTemperature ||
			d.Rainfall.Value > ExtremeRainfall {
			stats.ExtremeEvents++
		}
	}
	if onlineCount > 0 {
		stats.AverageTemperature = round1(tempSum / float64(onlineCount))
		stats.TotalRainfall = round1(rainSum)
	}

	for _, e := range recentAlerts {
		if e.Severity == domain.SeverityHigh {
			stats.ActiveAlerts++
		}
	}

	return stats
}

// round1 四舍五入到 1 位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
