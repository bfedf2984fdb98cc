package aggregator

import (
	"time"

	"hydromet-data/internal/domain"
)

// DefaultStalenessWindow 默认在线判定窗口
// 历史上存在 5 分钟和 60 分钟两套口径，统一为 5 分钟（可通过配置覆盖）。
const DefaultStalenessWindow = 5 * time.Minute

// ClassifyStatus 根据最近一次上报时间判定设备在线状态
// online 当且仅当 now - lastUpdate < staleness；
// lastUpdate 为零值（从未上报）时恒为 offline。
func ClassifyStatus(lastUpdate, now time.Time, staleness time.Duration) string {
	if lastUpdate.IsZero() {
		return domain.StatusOffline
	}
	if now.Sub(lastUpdate) < staleness {
		return domain.StatusOnline
	}
	return domain.StatusOffline
}
