package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hydromet-data/internal/store"
)

// RealtimeSampleRepo 站点实时状态文档存取（Redis）
// key: hydromet:device:{device_id}:state
// 文档形状即 transformer.SourceStation 的输入（嵌套 sensors，带 previous 值）。
type RealtimeSampleRepo struct {
	kv  store.KVStore
	ttl time.Duration
}

func NewRealtimeSampleRepo(kv store.KVStore, ttl time.Duration) *RealtimeSampleRepo {
	return &RealtimeSampleRepo{kv: kv, ttl: ttl}
}

func stateKey(deviceID string) string {
	return fmt.Sprintf("hydromet:device:%s:state", deviceID)
}

// GetState 读取设备状态文档
// 不存在时返回 store.ErrCacheMiss（从未上报或已过期的设备）。
func (r *RealtimeSampleRepo) GetState(ctx context.Context, deviceID string) (map[string]any, error) {
	val, err := r.kv.Get(ctx, stateKey(deviceID))
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state doc: %w", err)
	}
	return doc, nil
}

// PutState 写入设备状态文档
func (r *RealtimeSampleRepo) PutState(ctx context.Context, deviceID string, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal state doc: %w", err)
	}
	return r.kv.Set(ctx, stateKey(deviceID), string(data), r.ttl)
}

// DeleteState 删除设备状态文档（设备删除时级联）
func (r *RealtimeSampleRepo) DeleteState(ctx context.Context, deviceID string) error {
	return r.kv.Del(ctx, stateKey(deviceID))
}
