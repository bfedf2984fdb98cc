package aggregator

import (
	"strings"
	"time"

	"hydromet-data/internal/domain"
)

// 日期窗口取值
const (
	RangeAll   = "all"
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
)

// LogFilterCriteria 日志过滤条件
// 所有条件取 AND；空值 / "all" 的条件不生效。
type LogFilterCriteria struct {
	Search    string // 对 message 或 device_name 的大小写不敏感子串匹配
	Type      string // 事件类型
	Severity  string // 事件级别
	DateRange string // all / today / week / month
}

// FilterLogs 对日志列表应用过滤条件
// 纯函数：不修改输入，每次返回新切片；输出保持输入顺序（不重排序）。
// now 由调用方传入，today/week/month 窗口相对它计算：
// today 为本地日历日零点起，week 为滚动 7×24h，month 为滚动 30×24h。
func FilterLogs(logs []*domain.LogEvent, criteria LogFilterCriteria, now time.Time) []*domain.LogEvent {
	search := strings.ToLower(strings.TrimSpace(criteria.Search))

	var cutoff time.Time
	switch criteria.DateRange {
	case RangeToday:
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case RangeWeek:
		cutoff = now.Add(-7 * 24 * time.Hour)
	case RangeMonth:
		cutoff = now.Add(-30 * 24 * time.Hour)
	}

	out := make([]*domain.LogEvent, 0, len(logs))
	for _, e := range logs {
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Message), search) &&
			!strings.Contains(strings.ToLower(e.DeviceName), search) {
			continue
		}
		if criteria.Type != "" && criteria.Type != RangeAll && e.Type != criteria.Type {
			continue
		}
		if criteria.Severity != "" && criteria.Severity != RangeAll && e.Severity != criteria.Severity {
			continue
		}
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}
