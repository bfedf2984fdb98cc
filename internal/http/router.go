package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterDeviceRoutes 注册设备管理路由
func (r *Router) RegisterDeviceRoutes(h *DeviceHandler) {
	r.Handle("/api/v1/devices", h.ServeHTTP)
	r.Handle("/api/v1/devices/", h.ServeHTTP)
}

// RegisterDashboardRoutes 注册仪表盘路由
func (r *Router) RegisterDashboardRoutes(h *DashboardHandler) {
	r.Handle("/api/v1/dashboard", h.GetDashboard)
}

// RegisterLogRoutes 注册事件日志路由
func (r *Router) RegisterLogRoutes(h *LogHandler) {
	r.Handle("/api/v1/logs", h.ServeHTTP)
	r.Handle("/api/v1/logs/", h.ServeHTTP)
}

// RegisterIngestRoutes 注册样本上报路由
func (r *Router) RegisterIngestRoutes(h *IngestHandler) {
	r.Handle("/api/v1/ingest", h.Ingest)
}

// RegisterGeolocateRoutes 注册坐标预填路由
func (r *Router) RegisterGeolocateRoutes(h *GeolocateHandler) {
	r.Handle("/api/v1/geolocate", h.Locate)
}

// RegisterHealthRoutes 注册健康检查路由
func (r *Router) RegisterHealthRoutes() {
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
