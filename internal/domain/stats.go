package domain

// DeviceStats 用户设备群的即时统计（每次请求重新计算，不持久化）
type DeviceStats struct {
	TotalDevices    int `json:"totalDevices"`
	OnlineDevices   int `json:"onlineDevices"`
	OfflineDevices  int `json:"offlineDevices"`
	AlertDevices    int `json:"alertDevices"`
	AvgBatteryLevel int `json:"avgBatteryLevel"`
}

// WeatherStats 气象汇总（每次请求重新计算，不持久化）
// AverageTemperature/TotalRainfall 只统计在线设备；
// ExtremeEvents 统计全部设备（离线设备的最后读数仍然算极端事件）。
type WeatherStats struct {
	AverageTemperature float64 `json:"averageTemperature"` // 摄氏度，1位小数
	TotalRainfall      float64 `json:"totalRainfall"`      // 毫米，求和口径，1位小数
	ActiveAlerts       int     `json:"activeAlerts"`
	ExtremeEvents      int     `json:"extremeEvents"`
}
