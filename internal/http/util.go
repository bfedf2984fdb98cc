package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// userIDFromReq 提取请求者身份
// 查询参数优先（调试方便），正常请求走 X-User-Id 头（前端 Axios 登录后注入）。
func userIDFromReq(w http.ResponseWriter, r *http.Request) (string, bool) {
	if uid := r.URL.Query().Get("user_id"); uid != "" {
		return uid, true
	}
	if uid := r.Header.Get("X-User-Id"); uid != "" && uid != "null" {
		return uid, true
	}
	writeJSON(w, http.StatusOK, Fail("user_id is required"))
	return "", false
}
