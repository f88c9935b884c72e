// internal/utils/response.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every /api/v1 reply. The relay routes
// answer with model.EquipmentResponse instead.
type APIResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data any) {
	c.JSON(statusCode, envelope(c, true, message, data, nil))
}

// ErrorResponse aborts the chain with an error envelope. err, when set,
// becomes the details field.
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	apiErr := &APIError{Code: getErrorCode(statusCode), Message: message}
	if err != nil {
		apiErr.Details = err.Error()
	}
	c.AbortWithStatusJSON(statusCode, envelope(c, false, message, nil, apiErr))
}

func envelope(c *gin.Context, ok bool, message string, data any, apiErr *APIError) APIResponse {
	return APIResponse{
		Success:   ok,
		Message:   message,
		Data:      data,
		Error:     apiErr,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	}
}

// Page is the data of a paginated listing.
type Page struct {
	Items  any `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PagedResponse sends one page of a listing
func PagedResponse(c *gin.Context, message string, items any, total, limit, offset int) {
	SuccessResponse(c, http.StatusOK, message, Page{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

var errorCodes = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusConflict:            "CONFLICT",
	http.StatusUnprocessableEntity: "UNPROCESSABLE_ENTITY",
	http.StatusTooManyRequests:     "RATE_LIMIT_EXCEEDED",
	http.StatusInternalServerError: "INTERNAL_SERVER_ERROR",
	http.StatusNotImplemented:      "METHOD_NOT_SUPPORTED",
	http.StatusBadGateway:          "DEVICE_UNREACHABLE",
	http.StatusServiceUnavailable:  "SERVICE_UNAVAILABLE",
}

func getErrorCode(statusCode int) string {
	if code, ok := errorCodes[statusCode]; ok {
		return code
	}
	return "UNKNOWN_ERROR"
}
