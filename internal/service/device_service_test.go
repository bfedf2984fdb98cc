package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/service"
	"hydromet-data/internal/transformer"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type deviceFixture struct {
	devicesRepo *fakeDevicesRepo
	logsRepo    *fakeLogsRepo
	tokensRepo  *fakeTokensRepo
	kv          *fakeKVStore
	samples     *repository.RealtimeSampleRepo
	svc         service.DeviceService
}

func newDeviceFixture(t *testing.T) *deviceFixture {
	t.Helper()

	devicesRepo := newFakeDevicesRepo()
	logsRepo := newFakeLogsRepo()
	tokensRepo := newFakeTokensRepo()
	kv := newFakeKVStore()
	samples := repository.NewRealtimeSampleRepo(kv, time.Hour)
	logger := zap.NewNop()

	tokens := service.NewTokenService(tokensRepo, 24*time.Hour, logger)
	source := service.NewStationSampleSource(devicesRepo, samples, logger)
	trans := transformer.NewStationTransformer(transformer.DefaultDefaults(2.5))

	return &deviceFixture{
		devicesRepo: devicesRepo,
		logsRepo:    logsRepo,
		tokensRepo:  tokensRepo,
		kv:          kv,
		samples:     samples,
		svc: service.NewDeviceService(
			devicesRepo, logsRepo, tokens, source, trans, samples,
			5*time.Minute, logger,
		),
	}
}

func TestCreateDevice_Service(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID:    "u-1",
		Name:      "Bendung Katulampa",
		Location:  "Bogor",
		Lat:       -6.63,
		Lng:       106.84,
		Threshold: 2.5,
	})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Device.DeviceID)
	require.Equal(t, domain.StatusOffline, resp.Device.Status)
	require.Equal(t, 100, resp.Device.BatteryLevel)

	// 初始上报令牌随注册签发
	require.NotNil(t, resp.Token)
	require.Equal(t, resp.Device.DeviceID, resp.Token.DeviceID)

	// device_created 事件
	created := f.logsRepo.eventsOfType(domain.EventDeviceCreated)
	require.Len(t, created, 1)
	require.Equal(t, domain.SeverityLow, created[0].Severity)
	require.Equal(t, "Bendung Katulampa", created[0].DeviceName)
}

func TestCreateDevice_Validation(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  service.CreateDeviceRequest
	}{
		{"missing name", service.CreateDeviceRequest{UserID: "u-1", Threshold: 2.5}},
		{"zero threshold", service.CreateDeviceRequest{UserID: "u-1", Name: "X", Threshold: 0}},
		{"negative threshold", service.CreateDeviceRequest{UserID: "u-1", Name: "X", Threshold: -1}},
		{"lat out of range", service.CreateDeviceRequest{UserID: "u-1", Name: "X", Threshold: 2.5, Lat: 91}},
		{"lng out of range", service.CreateDeviceRequest{UserID: "u-1", Name: "X", Threshold: 2.5, Lng: -181}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateDevice(ctx, tc.req)
			require.True(t, service.IsValidationError(err))
		})
	}

	// 校验失败不落任何数据
	require.Empty(t, f.devicesRepo.devices)
	require.Empty(t, f.logsRepo.events)
}

func TestListDevices_Normalized(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Alpha", Threshold: 2.5,
	})
	require.NoError(t, err)

	// 写入实时状态文档，模拟一次上报后的状态
	doc := map[string]any{
		"last_update": time.Now().Unix(),
		"battery":     77,
		"sensors": map[string]any{
			"water_level": map[string]any{"value": 1.2, "previous": 1.0},
		},
	}
	require.NoError(t, f.samples.PutState(ctx, resp.Device.DeviceID, doc))

	list, err := f.svc.ListDevices(ctx, service.ListDevicesRequest{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	d := list.Items[0]
	require.Equal(t, domain.StatusOnline, d.Status)
	require.Equal(t, 77, d.BatteryLevel)
	require.Equal(t, domain.TrendUp, d.WaterLevel.Trend)
	// 未设置坐标 → 固定回退位置
	require.Equal(t, transformer.FallbackCoordinates, d.Coordinates)
}

// 实时库故障时降级为注册表数据（不中断列表）
func TestListDevices_RedisDownDegrades(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Alpha", Threshold: 2.5,
	})
	require.NoError(t, err)

	f.kv.failAll = true
	list, err := f.svc.ListDevices(ctx, service.ListDevicesRequest{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, domain.StatusOffline, list.Items[0].Status)
}

// 畸形状态文档只影响那一条：跳过并继续
func TestListDevices_SkipsMalformed(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	good, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Good", Threshold: 2.5,
	})
	require.NoError(t, err)

	// 直接存一条缺 device_id 的注册表行（历史脏数据）
	f.devicesRepo.devices[""] = &domain.Device{DeviceID: "", UserID: "u-1", Name: "Broken"}

	list, err := f.svc.ListDevices(ctx, service.ListDevicesRequest{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, good.Device.DeviceID, list.Items[0].DeviceID)
}

func TestGetDevice_Service(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Alpha", Threshold: 2.5,
	})
	require.NoError(t, err)

	resp, err := f.svc.GetDevice(ctx, service.GetDeviceRequest{
		UserID: "u-1", DeviceID: created.Device.DeviceID,
	})
	require.NoError(t, err)
	require.Equal(t, "Alpha", resp.Device.Name)

	_, err = f.svc.GetDevice(ctx, service.GetDeviceRequest{UserID: "u-1", DeviceID: "missing"})
	require.ErrorIs(t, err, service.ErrNotFound)
}

// 归属校验 fail closed：他人设备按不存在处理
func TestGetDevice_OwnershipFailClosed(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Alpha", Threshold: 2.5,
	})
	require.NoError(t, err)

	_, err = f.svc.GetDevice(ctx, service.GetDeviceRequest{
		UserID: "u-2", DeviceID: created.Device.DeviceID,
	})
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateDevice_ThresholdChangeAudited(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Alpha", Threshold: 2.5,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateDevice(ctx, service.UpdateDeviceRequest{
		UserID:    "u-1",
		DeviceID:  created.Device.DeviceID,
		Name:      "Alpha Renamed",
		Threshold: 3.0,
	})
	require.NoError(t, err)

	require.Len(t, f.logsRepo.eventsOfType(domain.EventDeviceUpdated), 1)
	cfg := f.logsRepo.eventsOfType(domain.EventConfiguration)
	require.Len(t, cfg, 1)
	require.Equal(t, domain.SeverityMedium, cfg[0].Severity)
	require.Contains(t, cfg[0].Message, "2.50m")
	require.Contains(t, cfg[0].Message, "3.00m")

	// 阈值不变的更新只记 device_updated
	_, err = f.svc.UpdateDevice(ctx, service.UpdateDeviceRequest{
		UserID:    "u-1",
		DeviceID:  created.Device.DeviceID,
		Name:      "Alpha Renamed Again",
		Threshold: 3.0,
	})
	require.NoError(t, err)
	require.Len(t, f.logsRepo.eventsOfType(domain.EventConfiguration), 1)
	require.Len(t, f.logsRepo.eventsOfType(domain.EventDeviceUpdated), 2)
}

func TestDeleteDevice_Cascades(t *testing.T) {
	f := newDeviceFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID: "u-1", Name: "Alpha", Threshold: 2.5,
	})
	require.NoError(t, err)
	id := created.Device.DeviceID

	doc, _ := json.Marshal(map[string]any{"last_update": time.Now().Unix()})
	f.kv.data["hydromet:device:"+id+":state"] = string(doc)

	require.NoError(t, f.svc.DeleteDevice(ctx, service.DeleteDeviceRequest{
		UserID: "u-1", DeviceID: id,
	}))

	// 设备、令牌、实时状态全部删除
	require.Empty(t, f.devicesRepo.devices)
	require.Empty(t, f.tokensRepo.byDevice)
	require.Empty(t, f.kv.data)

	// 日志保留，device_deleted 事件带展示名快照
	deleted := f.logsRepo.eventsOfType(domain.EventDeviceDeleted)
	require.Len(t, deleted, 1)
	require.Equal(t, "Alpha", deleted[0].DeviceName)

	// 他人删除 fail closed
	err = f.svc.DeleteDevice(ctx, service.DeleteDeviceRequest{UserID: "u-2", DeviceID: id})
	require.ErrorIs(t, err, service.ErrNotFound)
}
