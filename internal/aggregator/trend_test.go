package aggregator_test

import (
	"testing"

	agg "hydromet-data/internal/aggregator"
	"hydromet-data/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestClassifyTrend_Directions(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		previous float64
		epsilon  float64
		trend    domain.Trend
		change   float64
	}{
		{"rise above epsilon", 1.2, 1.0, 0.1, domain.TrendUp, 0.2},
		{"drop below epsilon", 0.8, 1.0, 0.1, domain.TrendDown, -0.2},
		{"within noise floor", 1.05, 1.0, 0.1, domain.TrendStable, 0.05},
		{"exactly epsilon is stable", 1.25, 1.0, 0.25, domain.TrendStable, 0.25},
		{"exactly minus epsilon is stable", 0.75, 1.0, 0.25, domain.TrendStable, -0.25},
		{"no change", 1.0, 1.0, 0.1, domain.TrendStable, 0},
		{"temperature epsilon", 28.0, 27.0, agg.EpsilonTemperature, domain.TrendUp, 1.0},
		{"negative values", -2.0, -1.0, 0.5, domain.TrendDown, -1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := agg.ClassifyTrend(tc.current, tc.previous, tc.epsilon)
			require.Equal(t, tc.trend, r.Trend)
			require.InDelta(t, tc.change, r.Change, 1e-9)
			require.Equal(t, tc.current, r.Value)
		})
	}
}

func TestClassifyTrendBaseline(t *testing.T) {
	r := agg.ClassifyTrendBaseline(3.7)
	require.Equal(t, domain.TrendStable, r.Trend)
	require.Equal(t, 0.0, r.Change)
	require.Equal(t, 3.7, r.Value)
}

// 样本序列 [1.0, 1.05, 1.2]，水位 epsilon=0.1：
// 基线 stable，+0.05 stable，+0.15 up
func TestClassifyTrend_WaterLevelSequence(t *testing.T) {
	r0 := agg.ClassifyTrendBaseline(1.0)
	require.Equal(t, domain.TrendStable, r0.Trend)
	require.Equal(t, 0.0, r0.Change)

	r1 := agg.ClassifyTrend(1.05, 1.0, agg.EpsilonWaterLevel)
	require.Equal(t, domain.TrendStable, r1.Trend)
	require.InDelta(t, 0.05, r1.Change, 1e-9)

	r2 := agg.ClassifyTrend(1.2, 1.05, agg.EpsilonWaterLevel)
	require.Equal(t, domain.TrendUp, r2.Trend)
	require.InDelta(t, 0.15, r2.Change, 1e-9)
}
