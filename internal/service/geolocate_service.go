package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"hydromet-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 定位失败原因（封闭集合）
const (
	GeoReasonPermissionDenied = "permission_denied"
	GeoReasonUnavailable      = "unavailable"
	GeoReasonTimeout          = "timeout"
	GeoReasonOther            = "other"
)

// GeoError 定位失败，带原因分类
type GeoError struct {
	Reason string
	Err    error
}

func (e *GeoError) Error() string {
	return fmt.Sprintf("geolocate failed (%s): %v", e.Reason, e.Err)
}

func (e *GeoError) Unwrap() error { return e.Err }

// GeolocateService 地理定位服务接口
// 只用于注册表单的坐标预填，任何聚合逻辑都不依赖它。
type GeolocateService interface {
	Locate(ctx context.Context) (*domain.Coordinates, error)
}

type geolocateService struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewGeolocateService 创建定位服务
// endpoint 为空表示未配置，Locate 返回 unavailable。
func NewGeolocateService(endpoint string, logger *zap.Logger) GeolocateService {
	var client *resty.Client
	if endpoint != "" {
		client = resty.New().
			SetBaseURL(endpoint).
			SetTimeout(5*time.Second).
			SetHeader("Accept", "application/json")
	}
	return &geolocateService{
		httpClient: client,
		logger:     logger,
	}
}

// geoResponse 定位服务响应
type geoResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (s *geolocateService) Locate(ctx context.Context) (*domain.Coordinates, error) {
	if s.httpClient == nil {
		return nil, &GeoError{Reason: GeoReasonUnavailable, Err: errors.New("geolocation endpoint not configured")}
	}

	var result geoResponse
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("")

	if err != nil {
		reason := GeoReasonOther
		var netErr net.Error
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = GeoReasonTimeout
		case errors.As(err, &netErr) && netErr.Timeout():
			reason = GeoReasonTimeout
		}
		return nil, &GeoError{Reason: reason, Err: err}
	}
	switch {
	case resp.StatusCode() == 401 || resp.StatusCode() == 403:
		return nil, &GeoError{Reason: GeoReasonPermissionDenied, Err: fmt.Errorf("status %d", resp.StatusCode())}
	case resp.StatusCode() != 200:
		return nil, &GeoError{Reason: GeoReasonUnavailable, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}

	return &domain.Coordinates{Lat: result.Lat, Lng: result.Lng}, nil
}
