package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"hydromet-data/internal/aggregator"
	"hydromet-data/internal/service"

	"go.uber.org/zap"
)

// LogHandler 事件日志 Handler
type LogHandler struct {
	logService service.LogService
	logger     *zap.Logger
}

// NewLogHandler 创建事件日志 Handler
func NewLogHandler(logService service.LogService, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		logService: logService,
		logger:     logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *LogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/logs" && r.Method == http.MethodGet:
		h.ListLogs(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/logs/") && r.Method == http.MethodDelete:
		h.DeleteLog(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListLogs 查询事件日志（过滤条件从查询参数取）
func (h *LogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	criteria := aggregator.LogFilterCriteria{
		Search:    q.Get("search"),
		Type:      q.Get("type"),
		Severity:  q.Get("severity"),
		DateRange: q.Get("range"),
	}

	resp, err := h.logService.ListLogs(ctx, service.ListLogsRequest{
		UserID:   userID,
		Criteria: criteria,
	})
	if err != nil {
		h.logger.Error("ListLogs failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	items := make([]map[string]any, len(resp.Items))
	for i, e := range resp.Items {
		items[i] = e.ToJSON()
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": resp.Total,
	}))
}

// DeleteLog 删除单条日志
func (h *LogHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logID := strings.TrimPrefix(r.URL.Path, "/api/v1/logs/")
	if logID == "" || strings.Contains(logID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	err := h.logService.DeleteLog(ctx, service.DeleteLogRequest{
		UserID: userID,
		LogID:  logID,
	})
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Fail("log not found"))
		return
	}
	if err != nil {
		h.logger.Error("DeleteLog failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok[any](nil))
}
