// Package response defines the JSON envelope returned by every HTTP endpoint.
package response

import (
	"net/http"
	"time"

	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
)

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	HTTPCode int    `json:"http_code,omitempty"`
	Message  string `json:"message"`
	Data     any    `json:"data,omitempty"`

	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the response time in Unix milliseconds
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Success wraps data into a successful response.
func Success(data any) *Response {
	return SuccessWithMessage("success", data)
}

// SuccessWithMessage wraps data with a custom message.
func SuccessWithMessage(message string, data any) *Response {
	return &Response{
		Code:      0,
		HTTPCode:  http.StatusOK,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Err builds an error response from an Errno.
func Err(e *errors.Errno) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:      e.Code,
		HTTPCode:  e.HTTPStatus(),
		Message:   e.MessageEN,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WithRequestID attaches the request id.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// IsSuccess reports whether the response carries code 0.
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

// HTTPStatus 返回响应对应的 HTTP 状态码。
// 未显式设置时按注册表查找，再按错误类别兜底。
func (r *Response) HTTPStatus() int {
	if r.HTTPCode != 0 {
		return r.HTTPCode
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryPermission:
		return http.StatusForbidden
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
