package httpapi

import (
	"net/http"

	"hydromet-data/internal/service"

	"go.uber.org/zap"
)

// DashboardHandler 仪表盘 Handler
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler 创建仪表盘 Handler
func NewDashboardHandler(dashboardService service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetDashboard 加载仪表盘（设备列表 + 两组统计）
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.dashboardService.GetDashboard(ctx, service.GetDashboardRequest{UserID: userID})
	if err != nil {
		h.logger.Error("GetDashboard failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	devices := make([]map[string]any, len(resp.Devices))
	for i, d := range resp.Devices {
		devices[i] = d.ToJSON()
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"devices":       devices,
		"device_stats":  resp.DeviceStats,
		"weather_stats": resp.WeatherStats,
	}))
}
