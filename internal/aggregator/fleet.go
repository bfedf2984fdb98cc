package aggregator

import (
	"math"

	"hydromet-data/internal/domain"
)

// AggregateFleet 将用户的设备列表折叠为 DeviceStats
// 对任意有限列表（包括空列表）总是成功；空列表返回全零统计。
// alertDevices 的边界是闭区间：waterLevel >= threshold 即计入。
func AggregateFleet(devices []*domain.Device) domain.DeviceStats {
	stats := domain.DeviceStats{
		TotalDevices: len(devices),
	}
	if len(devices) == 0 {
		return stats
	}

	batterySum := 0
	for _, d := range devices {
		if d.Status == domain.StatusOnline {
			stats.OnlineDevices++
		}
		if d.WaterLevel.Value >= d.Threshold {
			stats.AlertDevices++
		}
		batterySum += d.BatteryLevel
	}
	stats.OfflineDevices = stats.TotalDevices - stats.OnlineDevices
	stats.AvgBatteryLevel = int(math.Round(float64(batterySum) / float64(stats.TotalDevices)))

	return stats
}
