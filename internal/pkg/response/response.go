package response

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

// Error codes shared by the handlers.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidJSON        = "INVALID_JSON"
	CodeNotFound           = "NOT_FOUND"
	CodeNameConflict       = "NAME_CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeGenerationFailed   = "GENERATION_FAILED"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeTransactionFailed  = "TRANSACTION_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

// ErrorBody is the payload of every failed request: {"error": {...}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine code, a readable message and optional context.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

// pagedResponse is the envelope for paginated list responses.
type pagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{
		Data:       data,
		Pagination: pagination,
	})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts with the standard error envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// ValidationFailed sends a 400 with per-field messages.
func ValidationFailed(c *gin.Context, message string, fields map[string][]string) {
	var details any
	if len(fields) > 0 {
		details = fields
	}
	Error(c, http.StatusBadRequest, CodeValidation, message, details)
}

// InvalidJSON sends a 422 for a body that is not parseable JSON.
func InvalidJSON(c *gin.Context) {
	Error(c, http.StatusUnprocessableEntity, CodeInvalidJSON, "Request body must be valid JSON", nil)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Not Found"
	}
	Error(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, code, message string, details any) {
	Error(c, http.StatusConflict, code, message, details)
}

// TooManyRequests sends a 429 error response.
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, CodeRateLimited, message, nil)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
}
