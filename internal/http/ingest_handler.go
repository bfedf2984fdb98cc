package httpapi

import (
	"errors"
	"net/http"

	"hydromet-data/internal/service"

	"go.uber.org/zap"
)

// IngestHandler 传感器样本 HTTP 上报 Handler
// 和 MQTT 直报共用同一个 IngestService。
type IngestHandler struct {
	ingestService service.IngestService
	logger        *zap.Logger
}

// NewIngestHandler 创建上报 Handler
func NewIngestHandler(ingestService service.IngestService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// ingestPayload 上报请求体
type ingestPayload struct {
	DeviceID  string             `json:"device_id"`
	Token     string             `json:"token"`
	Values    map[string]float64 `json:"values"`
	Battery   *int               `json:"battery,omitempty"`
	Timestamp int64              `json:"timestamp,omitempty"`
}

// Ingest 接收一次样本上报
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var payload ingestPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	err := h.ingestService.Ingest(ctx, service.IngestRequest{
		DeviceID:  payload.DeviceID,
		Token:     payload.Token,
		Values:    payload.Values,
		Battery:   payload.Battery,
		Timestamp: payload.Timestamp,
	})
	if errors.Is(err, service.ErrTokenInvalid) {
		writeJSON(w, http.StatusUnauthorized, Fail("invalid device token"))
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}
	if err != nil {
		h.logger.Error("Ingest failed",
			zap.String("device_id", payload.DeviceID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok[any](nil))
}
