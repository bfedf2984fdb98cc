package service_test

import (
	"context"
	"testing"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ingestFixture struct {
	devicesRepo *fakeDevicesRepo
	logsRepo    *fakeLogsRepo
	kv          *fakeKVStore
	samples     *repository.RealtimeSampleRepo
	svc         service.IngestService
	token       string
	deviceID    string
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	devicesRepo := newFakeDevicesRepo()
	logsRepo := newFakeLogsRepo()
	tokensRepo := newFakeTokensRepo()
	kv := newFakeKVStore()
	samples := repository.NewRealtimeSampleRepo(kv, time.Hour)
	logger := zap.NewNop()
	tokens := service.NewTokenService(tokensRepo, 24*time.Hour, logger)

	deviceID := "dev-1"
	devicesRepo.devices[deviceID] = &domain.Device{
		DeviceID:     deviceID,
		UserID:       "u-1",
		Name:         "Alpha",
		Threshold:    2.0,
		BatteryLevel: 100,
	}
	resp, err := tokens.GenerateToken(context.Background(), service.GenerateTokenRequest{
		UserID: "u-1", DeviceID: deviceID,
	})
	require.NoError(t, err)

	return &ingestFixture{
		devicesRepo: devicesRepo,
		logsRepo:    logsRepo,
		kv:          kv,
		samples:     samples,
		svc:         service.NewIngestService(devicesRepo, logsRepo, tokens, samples, 5*time.Minute, logger),
		token:       resp.Token.Token,
		deviceID:    deviceID,
	}
}

func TestIngest_InvalidTokenRejected(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	err := f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID: f.deviceID,
		Token:    "bogus",
		Values:   map[string]float64{"water_level": 1.0},
	})
	require.ErrorIs(t, err, service.ErrTokenInvalid)

	// 拒绝即不落任何数据
	require.Empty(t, f.kv.data)
	require.Empty(t, f.logsRepo.events)
	require.True(t, f.devicesRepo.devices[f.deviceID].LastUpdate.IsZero())
}

func TestIngest_RotatesPreviousValues(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID: f.deviceID,
		Token:    f.token,
		Values:   map[string]float64{"water_level": 1.0, "temperature": 28.0},
	}))

	doc, err := f.samples.GetState(ctx, f.deviceID)
	require.NoError(t, err)
	sensors := doc["sensors"].(map[string]any)

	// 首次上报：当前值即自身基线
	wl := sensors["water_level"].(map[string]any)
	require.Equal(t, 1.0, wl["value"])
	require.Equal(t, 1.0, wl["previous"])

	require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID: f.deviceID,
		Token:    f.token,
		Values:   map[string]float64{"water_level": 1.5},
	}))

	doc, err = f.samples.GetState(ctx, f.deviceID)
	require.NoError(t, err)
	sensors = doc["sensors"].(map[string]any)

	wl = sensors["water_level"].(map[string]any)
	require.Equal(t, 1.5, wl["value"])
	require.Equal(t, 1.0, wl["previous"])

	// 未上报的通道保持原样
	temp := sensors["temperature"].(map[string]any)
	require.Equal(t, 28.0, temp["value"])
}

func TestIngest_UpdatesTelemetrySnapshot(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	battery := 64
	ts := time.Now().Unix()
	require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID:  f.deviceID,
		Token:     f.token,
		Values:    map[string]float64{"water_level": 1.0},
		Battery:   &battery,
		Timestamp: ts,
	}))

	d := f.devicesRepo.devices[f.deviceID]
	require.Equal(t, 64, d.BatteryLevel)
	require.Equal(t, time.Unix(ts, 0), d.LastUpdate)
}

func TestIngest_BatteryClamped(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	battery := 130
	require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID: f.deviceID,
		Token:    f.token,
		Values:   map[string]float64{"water_level": 1.0},
		Battery:  &battery,
	}))
	require.Equal(t, 100, f.devicesRepo.devices[f.deviceID].BatteryLevel)
}

// threshold/high 事件只在向上越过阈值时记一次
func TestIngest_ThresholdCrossing(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	report := func(wl float64) {
		require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
			DeviceID: f.deviceID,
			Token:    f.token,
			Values:   map[string]float64{"water_level": wl},
		}))
	}

	report(1.0) // 阈值以下
	require.Empty(t, f.logsRepo.eventsOfType(domain.EventThreshold))

	report(2.5) // 向上越过 2.0
	events := f.logsRepo.eventsOfType(domain.EventThreshold)
	require.Len(t, events, 1)
	require.Equal(t, domain.SeverityHigh, events[0].Severity)
	require.Contains(t, events[0].Message, "2.50m")

	report(2.8) // 仍在阈值以上：不重复记
	require.Len(t, f.logsRepo.eventsOfType(domain.EventThreshold), 1)

	report(1.5) // 回落
	report(2.1) // 再次向上越过：再记一次
	require.Len(t, f.logsRepo.eventsOfType(domain.EventThreshold), 2)
}

// 首次上报（离线 → 在线）记 connection/low；持续在线不再记
func TestIngest_ConnectionEvent(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID: f.deviceID,
		Token:    f.token,
		Values:   map[string]float64{"water_level": 1.0},
	}))
	events := f.logsRepo.eventsOfType(domain.EventConnection)
	require.Len(t, events, 1)
	require.Equal(t, domain.SeverityLow, events[0].Severity)

	require.NoError(t, f.svc.Ingest(ctx, service.IngestRequest{
		DeviceID: f.deviceID,
		Token:    f.token,
		Values:   map[string]float64{"water_level": 1.1},
	}))
	require.Len(t, f.logsRepo.eventsOfType(domain.EventConnection), 1)
}
