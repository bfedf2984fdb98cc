package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hydromet-data/internal/service"

	"go.uber.org/zap"
)

// SampleBroker 站点直报消息处理模块
//
// 站点固件发布到 hydromet/{device_id}/samples，payload 与 HTTP 上报一致：
//
//	{
//	  "device_id": "dev-001",
//	  "token": "…",
//	  "values": {"water_level": 1.2, "temperature": 27.5, ...},
//	  "battery": 87,
//	  "timestamp": 1712345678
//	}
type SampleBroker struct {
	ingestService service.IngestService
	logger        *zap.Logger
}

// NewSampleBroker 创建样本消息处理模块
func NewSampleBroker(ingestService service.IngestService, logger *zap.Logger) *SampleBroker {
	return &SampleBroker{
		ingestService: ingestService,
		logger:        logger,
	}
}

// samplePayload 上报消息体
type samplePayload struct {
	DeviceID  string             `json:"device_id"`
	Token     string             `json:"token"`
	Values    map[string]float64 `json:"values"`
	Battery   *int               `json:"battery,omitempty"`
	Timestamp int64              `json:"timestamp,omitempty"`
}

// HandleMessage 处理一条上报消息
// payload 里缺 device_id 时从主题段里取（hydromet/{device_id}/samples）。
func (b *SampleBroker) HandleMessage(topic string, payload []byte) error {
	var msg samplePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal sample message: %w", err)
	}

	if msg.DeviceID == "" {
		msg.DeviceID = deviceIDFromTopic(topic)
	}
	if msg.DeviceID == "" {
		return fmt.Errorf("sample message missing device_id (topic %q)", topic)
	}

	err := b.ingestService.Ingest(context.Background(), service.IngestRequest{
		DeviceID:  msg.DeviceID,
		Token:     msg.Token,
		Values:    msg.Values,
		Battery:   msg.Battery,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest sample from %s: %w", msg.DeviceID, err)
	}

	b.logger.Debug("Sample ingested via MQTT",
		zap.String("device_id", msg.DeviceID),
		zap.Int("channels", len(msg.Values)),
	)
	return nil
}

// deviceIDFromTopic 提取主题第二段的设备 ID
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "hydromet" && parts[2] == "samples" {
		return parts[1]
	}
	return ""
}
