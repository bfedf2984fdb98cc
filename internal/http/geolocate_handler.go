package httpapi

import (
	"errors"
	"net/http"

	"hydromet-data/internal/service"

	"go.uber.org/zap"
)

// GeolocateHandler 坐标预填 Handler
type GeolocateHandler struct {
	geoService service.GeolocateService
	logger     *zap.Logger
}

// NewGeolocateHandler 创建坐标预填 Handler
func NewGeolocateHandler(geoService service.GeolocateService, logger *zap.Logger) *GeolocateHandler {
	return &GeolocateHandler{
		geoService: geoService,
		logger:     logger,
	}
}

// Locate 获取当前位置（注册表单预填用，失败带原因分类）
func (h *GeolocateHandler) Locate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	coords, err := h.geoService.Locate(ctx)
	if err != nil {
		var geoErr *service.GeoError
		if errors.As(err, &geoErr) {
			writeJSON(w, http.StatusOK, Result[any]{
				Code:    ResultError,
				Type:    "warning",
				Message: geoErr.Reason,
				Result:  nil,
			})
			return
		}
		h.logger.Error("Locate failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("geolocation failed"))
		return
	}

	writeJSON(w, http.StatusOK, Ok(coords))
}
