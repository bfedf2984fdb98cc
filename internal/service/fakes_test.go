package service_test

import (
	"context"
	"errors"
	"sort"
	"time"

	"hydromet-data/internal/domain"
	"hydromet-data/internal/repository"
	"hydromet-data/internal/store"
)

// 内存测试替身，覆盖 repository 三个接口 + KVStore

type fakeDevicesRepo struct {
	devices map[string]*domain.Device // device_id → device
	failAll bool
}

func newFakeDevicesRepo() *fakeDevicesRepo {
	return &fakeDevicesRepo{devices: map[string]*domain.Device{}}
}

func (f *fakeDevicesRepo) ListDevices(_ context.Context, userID string) ([]*domain.Device, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	out := []*domain.Device{}
	for _, d := range f.devices {
		if d.UserID == userID {
			copied := *d
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDevicesRepo) GetDevice(_ context.Context, userID, deviceID string) (*domain.Device, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	d, ok := f.devices[deviceID]
	if !ok || d.UserID != userID {
		return nil, repository.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDevicesRepo) CreateDevice(_ context.Context, device *domain.Device) error {
	if f.failAll {
		return errors.New("db down")
	}
	copied := *device
	f.devices[device.DeviceID] = &copied
	return nil
}

func (f *fakeDevicesRepo) UpdateDevice(_ context.Context, userID string, device *domain.Device) error {
	existing, ok := f.devices[device.DeviceID]
	if !ok || existing.UserID != userID {
		return repository.ErrNotFound
	}
	existing.Name = device.Name
	existing.Location = device.Location
	existing.Coordinates = device.Coordinates
	existing.Threshold = device.Threshold
	return nil
}

func (f *fakeDevicesRepo) UpdateTelemetry(_ context.Context, deviceID string, batteryLevel int, lastUpdateUnix int64) error {
	d, ok := f.devices[deviceID]
	if !ok {
		return repository.ErrNotFound
	}
	d.BatteryLevel = batteryLevel
	d.LastUpdate = time.Unix(lastUpdateUnix, 0)
	return nil
}

func (f *fakeDevicesRepo) DeleteDevice(_ context.Context, userID, deviceID string) error {
	d, ok := f.devices[deviceID]
	if !ok || d.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.devices, deviceID)
	return nil
}

type fakeLogsRepo struct {
	events  []*domain.LogEvent
	failAll bool
}

func newFakeLogsRepo() *fakeLogsRepo {
	return &fakeLogsRepo{}
}

func (f *fakeLogsRepo) AppendLog(_ context.Context, event *domain.LogEvent) error {
	if f.failAll {
		return errors.New("db down")
	}
	copied := *event
	f.events = append(f.events, &copied)
	return nil
}

func (f *fakeLogsRepo) ListRecentLogs(_ context.Context, userID string, limit int) ([]*domain.LogEvent, error) {
	if f.failAll {
		return nil, errors.New("db down")
	}
	out := []*domain.LogEvent{}
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLogsRepo) GetLog(_ context.Context, userID, logID string) (*domain.LogEvent, error) {
	for _, e := range f.events {
		if e.LogID == logID && e.UserID == userID {
			return e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLogsRepo) DeleteLog(_ context.Context, userID, logID string) error {
	for i, e := range f.events {
		if e.LogID == logID && e.UserID == userID {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// eventsOfType 按类型取事件（断言用）
func (f *fakeLogsRepo) eventsOfType(eventType string) []*domain.LogEvent {
	out := []*domain.LogEvent{}
	for _, e := range f.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeTokensRepo struct {
	byDevice map[string]*domain.DeviceToken
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{byDevice: map[string]*domain.DeviceToken{}}
}

func (f *fakeTokensRepo) ReplaceToken(_ context.Context, token *domain.DeviceToken) error {
	copied := *token
	f.byDevice[token.DeviceID] = &copied
	return nil
}

func (f *fakeTokensRepo) GetTokenByDevice(_ context.Context, userID, deviceID string) (*domain.DeviceToken, error) {
	t, ok := f.byDevice[deviceID]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokensRepo) GetTokenByValue(_ context.Context, token string) (*domain.DeviceToken, error) {
	for _, t := range f.byDevice {
		if t.Token == token {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTokensRepo) DeleteTokenByDevice(_ context.Context, deviceID string) error {
	delete(f.byDevice, deviceID)
	return nil
}

type fakeKVStore struct {
	data    map[string]string
	failAll bool
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{data: map[string]string{}}
}

func (f *fakeKVStore) Get(_ context.Context, key string) (string, error) {
	if f.failAll {
		return "", errors.New("redis down")
	}
	v, ok := f.data[key]
	if !ok {
		return "", store.ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKVStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	if f.failAll {
		return errors.New("redis down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeKVStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}
