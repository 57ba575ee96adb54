package respond

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"shop-api/internal/shared/storage"
)

// APIError 携带明确 HTTP 状态码的错误，边界处原样透传
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError 创建 APIError
func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

// HandleError 单一错误翻译边界
//
// 错误分类映射：
//   - *APIError            -> 自带状态码
//   - validator 校验错误   -> 400（聚合全部失败字段）
//   - storage.ErrNotFound  -> 404
//   - storage.ErrDuplicate -> 409
//   - 其余                 -> 500，对外只给通用消息
//
// 所有错误先记录日志再写响应。
func HandleError(w http.ResponseWriter, logPrefix string, err error) {
	log.Printf("%s error: %v", logPrefix, err)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		Error(w, apiErr.Status, apiErr.Message)
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationError(w, verrs)
		return
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		Error(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, storage.ErrDuplicate):
		Error(w, http.StatusConflict, "resource already exists")
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
