// Package rest 封装旧云端 REST 后端（迁移期并存的第二数据源）
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// CloudResponse 旧后端响应信封（Laravel 风格：{"data": [...]}）
type CloudResponse struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// CloudClient 旧云端 API 客户端
type CloudClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewCloudClient 创建旧云端客户端
// 旧后端不太稳定，带重试（3 次）
func NewCloudClient(baseURL, apiKey string, logger *zap.Logger) *CloudClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &CloudClient{
		httpClient: client,
		logger:     logger,
	}
}

// FetchDevices 拉取用户的设备记录（扁平旧形状，交给 transformer 归一化）
func (c *CloudClient) FetchDevices(ctx context.Context, userID string) ([]map[string]any, error) {
	var response CloudResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetResult(&response).
		Get("/api/devices")

	if err != nil {
		c.logger.Error("Cloud API call failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("cloud backend unavailable: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("cloud backend returned status %d", resp.StatusCode())
	}

	var records []map[string]any
	if len(response.Data) > 0 {
		if err := json.Unmarshal(response.Data, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device records: %w", err)
		}
	}
	return records, nil
}

// FetchDevice 拉取单台设备记录
func (c *CloudClient) FetchDevice(ctx context.Context, userID, deviceID string) (map[string]any, error) {
	var response CloudResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		SetResult(&response).
		Get("/api/devices/" + deviceID)

	if err != nil {
		return nil, fmt.Errorf("cloud backend unavailable: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, nil
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("cloud backend returned status %d", resp.StatusCode())
	}

	var record map[string]any
	if len(response.Data) > 0 {
		if err := json.Unmarshal(response.Data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal device record: %w", err)
		}
	}
	return record, nil
}
