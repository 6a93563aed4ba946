package envelope

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Error codes carried by failure envelopes.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeAuthorizationFailed  = "AUTHORIZATION_FAILED"
	CodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	CodeOperationFailed      = "OPERATION_FAILED"
	CodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeTimeout              = "TIMEOUT"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodePermissionDenied     = "PERMISSION_DENIED"
)

// Envelope is the uniform response shape for every command outcome.
type Envelope struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
	RequestID string     `json:"requestId"`
}

// ErrorBody describes one failure with a stable machine-readable code.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// New returns a success envelope with a fresh request id and timestamp.
func New(data any) Envelope {
	return Envelope{
		Success:   true,
		Data:      data,
		Timestamp: stamp(),
		RequestID: uuid.NewString(),
	}
}

// NewError returns a failure envelope with a fresh request id and timestamp.
func NewError(code, message string, details any) Envelope {
	return Envelope{
		Success:   false,
		Error:     &ErrorBody{Code: code, Message: message, Details: details},
		Timestamp: stamp(),
		RequestID: uuid.NewString(),
	}
}

// OK writes a success envelope to the gin response.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, New(data))
}

// Fail writes a failure envelope to the gin response without aborting.
func Fail(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, NewError(code, message, details))
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, NewError(code, message, details))
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
