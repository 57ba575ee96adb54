// Package respond 统一 HTTP 响应信封与错误边界
//
// 成功响应：{"success":true,"data":...}，列表附带 count 与 pagination。
// 错误响应：{"success":false,"error":"..."}，校验失败附带逐字段 errors，
// 非生产环境附带 stack 便于调试。
package respond

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/go-playground/validator/v10"

	"shop-api/internal/shared/storage"
)

// includeStack 非生产环境在错误响应中附带堆栈，启动时由 main 设置一次
var includeStack bool

// SetDebug 控制错误响应是否携带堆栈（仅非生产环境开启）
func SetDebug(debug bool) {
	includeStack = debug
}

// envelope 响应信封
type envelope struct {
	Success    bool                `json:"success"`
	Data       interface{}         `json:"data,omitempty"`
	Count      *int                `json:"count,omitempty"`
	Pagination *storage.Pagination `json:"pagination,omitempty"`
	Error      string              `json:"error,omitempty"`
	Errors     []FieldError        `json:"errors,omitempty"`
	Stack      string              `json:"stack,omitempty"`
}

// FieldError 单字段校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[respond] encode response error: %v", err)
	}
}

// Data 写出成功响应
func Data(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// List 写出带分页摘要的列表响应
func List(w http.ResponseWriter, data interface{}, count int, p storage.Pagination) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Data:       data,
		Count:      &count,
		Pagination: &p,
	})
}

// Error 写出错误响应
func Error(w http.ResponseWriter, status int, message string) {
	e := envelope{Success: false, Error: message}
	if includeStack {
		e.Stack = string(debug.Stack())
	}
	writeJSON(w, status, e)
}

// ValidationError 写出聚合的校验错误响应
//
// 所有失败字段一次性返回，不在首个失败处短路。
func ValidationError(w http.ResponseWriter, err error) {
	e := envelope{Success: false, Error: "validation failed"}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			e.Errors = append(e.Errors, FieldError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	} else {
		e.Error = err.Error()
	}
	if includeStack {
		e.Stack = string(debug.Stack())
	}
	writeJSON(w, http.StatusBadRequest, e)
}

// validationMessage 生成人类可读的校验错误消息
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation: " + fe.Tag()
	}
}
