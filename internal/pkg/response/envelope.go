package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// Empty 失败响应或无数据成功响应的 data 类型
type Empty struct{}

// Envelope 所有 HTTP 接口的统一响应体
type Envelope[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      *T     `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

func newEnvelope[T any](code int, message string, data *T, traceID string) *Envelope[T] {
	return &Envelope[T]{
		Code:      code,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
		TraceID:   traceID,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
