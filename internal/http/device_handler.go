package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"hydromet-data/internal/service"

	"go.uber.org/zap"
)

// DeviceHandler 设备管理 Handler
type DeviceHandler struct {
	deviceService service.DeviceService
	tokenService  service.TokenService
	logger        *zap.Logger
}

// NewDeviceHandler 创建设备管理 Handler
func NewDeviceHandler(deviceService service.DeviceService, tokenService service.TokenService, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
		tokenService:  tokenService,
		logger:        logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *DeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	switch {
	case r.URL.Path == "/api/v1/devices" && r.Method == http.MethodGet:
		h.ListDevices(w, r)
	case r.URL.Path == "/api/v1/devices" && r.Method == http.MethodPost:
		h.CreateDevice(w, r)
	case r.URL.Path == "/api/v1/devices/export" && r.Method == http.MethodGet:
		h.ExportDevices(w, r)
	case strings.HasSuffix(r.URL.Path, "/token") && r.Method == http.MethodPost:
		h.RegenerateToken(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/devices/") && r.Method == http.MethodGet:
		h.GetDevice(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/devices/") && r.Method == http.MethodPut:
		h.UpdateDevice(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/devices/") && r.Method == http.MethodDelete:
		h.DeleteDevice(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// deviceIDFromPath 提取 /api/v1/devices/{id}[/token] 中的 id
func deviceIDFromPath(path string) string {
	id := strings.TrimPrefix(path, "/api/v1/devices/")
	id = strings.TrimSuffix(id, "/token")
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

// ListDevices 查询归一化设备列表
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.deviceService.ListDevices(ctx, service.ListDevicesRequest{UserID: userID})
	if err != nil {
		h.logger.Error("ListDevices failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	items := make([]map[string]any, len(resp.Items))
	for i, d := range resp.Items {
		items[i] = d.ToJSON()
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": len(items),
	}))
}

// GetDevice 查询设备详情
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID := deviceIDFromPath(r.URL.Path)
	if deviceID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.deviceService.GetDevice(ctx, service.GetDeviceRequest{
		UserID:   userID,
		DeviceID: deviceID,
	})
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}
	if err != nil {
		h.logger.Error("GetDevice failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp.Device.ToJSON()))
}

// devicePayload 创建/更新设备的请求体
type devicePayload struct {
	Name      string  `json:"name"`
	Location  string  `json:"location"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Threshold float64 `json:"threshold"`
}

// CreateDevice 注册设备
func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	var payload devicePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.deviceService.CreateDevice(ctx, service.CreateDeviceRequest{
		UserID:    userID,
		Name:      payload.Name,
		Location:  payload.Location,
		Lat:       payload.Lat,
		Lng:       payload.Lng,
		Threshold: payload.Threshold,
	})
	if service.IsValidationError(err) {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if err != nil {
		h.logger.Error("CreateDevice failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"device": resp.Device.ToJSON(),
		"token":  resp.Token.ToJSON(),
	}))
}

// UpdateDevice 更新设备
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID := deviceIDFromPath(r.URL.Path)
	if deviceID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	var payload devicePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	resp, err := h.deviceService.UpdateDevice(ctx, service.UpdateDeviceRequest{
		UserID:    userID,
		DeviceID:  deviceID,
		Name:      payload.Name,
		Location:  payload.Location,
		Lat:       payload.Lat,
		Lng:       payload.Lng,
		Threshold: payload.Threshold,
	})
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}
	if service.IsValidationError(err) {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	if err != nil {
		h.logger.Error("UpdateDevice failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp.Device.ToJSON()))
}

// DeleteDevice 删除设备
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deviceID := deviceIDFromPath(r.URL.Path)
	if deviceID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	err := h.deviceService.DeleteDevice(ctx, service.DeleteDeviceRequest{
		UserID:   userID,
		DeviceID: deviceID,
	})
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}
	if err != nil {
		h.logger.Error("DeleteDevice failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// RegenerateToken 重签设备上报令牌（旧令牌立即失效）
func (h *DeviceHandler) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !strings.HasPrefix(r.URL.Path, "/api/v1/devices/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	deviceID := deviceIDFromPath(r.URL.Path)
	if deviceID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	// 归属校验走设备查询（fail closed）
	if _, err := h.deviceService.GetDevice(ctx, service.GetDeviceRequest{
		UserID:   userID,
		DeviceID: deviceID,
	}); err != nil {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}

	resp, err := h.tokenService.GenerateToken(ctx, service.GenerateTokenRequest{
		UserID:   userID,
		DeviceID: deviceID,
	})
	if err != nil {
		h.logger.Error("GenerateToken failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp.Token.ToJSON()))
}

// ExportDevices 导出设备清单（xlsx）
func (h *DeviceHandler) ExportDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.deviceService.ListDevices(ctx, service.ListDevicesRequest{UserID: userID})
	if err != nil {
		h.logger.Error("ListDevices failed for export", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	data, err := GenerateDeviceExport(resp.Items)
	if err != nil {
		h.logger.Error("GenerateDeviceExport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="devices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
