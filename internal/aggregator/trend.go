package aggregator

import (
	"hydromet-data/internal/domain"
)

// 各物理通道的趋势判定噪声阈值（epsilon）
// 不同通道的噪声底不同，判定阈值必须按通道给定，不能共用一个值。
const (
	EpsilonWaterLevel  = 0.1 // 米
	EpsilonTemperature = 0.5 // 摄氏度
	EpsilonRainfall    = 1.0 // 毫米
	EpsilonHumidity    = 2.0 // 百分比
	EpsilonWindSpeed   = 1.0 // m/s
	EpsilonPressure    = 2.0 // hPa
)

// ClassifyTrend 根据当前值和上一次值判定趋势
// change = current - previous；
// change > epsilon 为 up，change < -epsilon 为 down，否则 stable。
// 纯函数，无副作用。
func ClassifyTrend(current, previous, epsilon float64) domain.SensorReading {
	change := current - previous
	trend := domain.TrendStable
	switch {
	case change > epsilon:
		trend = domain.TrendUp
	case change < -epsilon:
		trend = domain.TrendDown
	}
	return domain.SensorReading{
		Value:  current,
		Trend:  trend,
		Change: change,
	}
}

// ClassifyTrendBaseline 没有上一次值时，当前样本作为自身基线
// change = 0，trend = stable。
func ClassifyTrendBaseline(current float64) domain.SensorReading {
	return domain.SensorReading{
		Value:  current,
		Trend:  domain.TrendStable,
		Change: 0,
	}
}
