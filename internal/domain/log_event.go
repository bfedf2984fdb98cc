package domain

import "time"

// 事件类型（event_logs.event_type）
const (
	EventAlert         = "alert"
	EventConnection    = "connection"
	EventDisconnection = "disconnection"
	EventConfiguration = "configuration"
	EventThreshold     = "threshold"
	EventSensorData    = "sensor_data"
	EventDeviceCreated = "device_created"
	EventDeviceUpdated = "device_updated"
	EventDeviceDeleted = "device_deleted"
)

// 事件级别（event_logs.severity）
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// LogEvent 审计/告警事件（append-only，只能整条删除，不可修改）
type LogEvent struct {
	LogID      string    `db:"log_id"`
	DeviceID   string    `db:"device_id"`
	UserID     string    `db:"user_id"`
	Type       string    `db:"event_type"`
	Severity   string    `db:"severity"`
	Message    string    `db:"message"`
	DeviceName string    `db:"device_name"` // 展示名快照，设备删除后日志仍可读
	Timestamp  time.Time `db:"created_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (e *LogEvent) ToJSON() map[string]any {
	return map[string]any{
		"log_id":      e.LogID,
		"device_id":   e.DeviceID,
		"user_id":     e.UserID,
		"type":        e.Type,
		"severity":    e.Severity,
		"message":     e.Message,
		"device_name": e.DeviceName,
		"timestamp":   e.Timestamp.UTC().Format(time.RFC3339),
	}
}
