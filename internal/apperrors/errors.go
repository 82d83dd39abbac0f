// Package apperrors provides standardized error handling for ForgeSyte.
//
// Error Structure:
//   - Code: Machine-readable error identifier (e.g., "PLUGIN_NOT_FOUND")
//   - Message: Human-readable error message
//   - Details: Optional additional context (wrapped errors, stack traces)
//   - StatusCode: HTTP status code
//
// Usage patterns:
//
//	return apperrors.PluginNotFound("yolo_football")
//	return apperrors.Wrap(apperrors.ErrCodePluginExecution, "tool handler failed", err)
//	c.JSON(err.StatusCode, err.ToResponse())
package apperrors

import (
	"fmt"
	"net/http"
)

// AppError represents a standardized application error with HTTP context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorResponse represents the JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error codes, one per §7 taxonomy variant.
const (
	ErrCodeAuthentication      = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization       = "AUTHORIZATION_ERROR"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodePluginNotFound      = "PLUGIN_NOT_FOUND"
	ErrCodePluginLoad          = "PLUGIN_LOAD_ERROR"
	ErrCodePluginExecution     = "PLUGIN_EXECUTION_ERROR"
	ErrCodeInputValidation     = "INPUT_VALIDATION_ERROR"
	ErrCodeOutputValidation    = "OUTPUT_VALIDATION_ERROR"
	ErrCodeJobNotFound         = "JOB_NOT_FOUND"
	ErrCodeJobCancellation     = "JOB_CANCELLATION_ERROR"
	ErrCodeJobExecution        = "JOB_EXECUTION_ERROR"
	ErrCodeMessageDelivery     = "MESSAGE_DELIVERY_ERROR"
	ErrCodeExternalService     = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTransport           = "TRANSPORT_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalServer      = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
)

func getStatusCodeForErrorCode(code string) int {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInputValidation, ErrCodeOutputValidation:
		return http.StatusBadRequest
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeAuthorization:
		return http.StatusForbidden
	case ErrCodeNotFound, ErrCodePluginNotFound, ErrCodeJobNotFound:
		return http.StatusNotFound
	case ErrCodeJobCancellation:
		return http.StatusConflict
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodePluginLoad, ErrCodePluginExecution, ErrCodeJobExecution,
		ErrCodeMessageDelivery, ErrCodeExternalService, ErrCodeTransport,
		ErrCodeInternalServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: getStatusCodeForErrorCode(code)}
}

// NewWithDetails creates a new AppError carrying additional debug context.
func NewWithDetails(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details, StatusCode: getStatusCodeForErrorCode(code)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code, message string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewWithDetails(code, message, details)
}

// ToResponse converts AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Code, Message: e.Message, Code: e.Code, Details: e.Details}
}

// Authentication returns an AuthenticationError for a missing or invalid key.
func Authentication(message string) *AppError {
	return New(ErrCodeAuthentication, message)
}

// Authorization returns an AuthorizationError carrying the permission gap.
func Authorization(required, held []string) *AppError {
	return NewWithDetails(ErrCodeAuthorization, "insufficient permissions",
		fmt.Sprintf("required=%v held=%v", required, held))
}

// Validation returns a ValidationError for a field/value violation.
func Validation(field string, value interface{}) *AppError {
	return NewWithDetails(ErrCodeValidation, fmt.Sprintf("invalid value for field %q", field), fmt.Sprintf("%v", value))
}

// PluginNotFound returns a PluginNotFoundError.
func PluginNotFound(name string) *AppError {
	return New(ErrCodePluginNotFound, fmt.Sprintf("plugin %q not found", name))
}

// PluginLoad returns a PluginLoadError wrapping the underlying init failure.
func PluginLoad(name string, err error) *AppError {
	return Wrap(ErrCodePluginLoad, fmt.Sprintf("plugin %q failed to load", name), err)
}

// PluginExecution returns a PluginExecutionError wrapping the handler's error.
func PluginExecution(name string, err error) *AppError {
	return Wrap(ErrCodePluginExecution, fmt.Sprintf("plugin %q tool handler failed", name), err)
}

// InputValidation returns an InputValidationError for the execution envelope.
func InputValidation(message string) *AppError {
	return New(ErrCodeInputValidation, message)
}

// OutputValidation returns an OutputValidationError for the returned mapping.
func OutputValidation(message string) *AppError {
	return New(ErrCodeOutputValidation, message)
}

// JobNotFound returns a JobNotFoundError for the given job id.
func JobNotFound(jobID string) *AppError {
	return NewWithDetails(ErrCodeJobNotFound, "job not found", jobID)
}

// JobCancellation returns a JobCancellationError with the reason the job could not be cancelled.
func JobCancellation(jobID, reason string) *AppError {
	return NewWithDetails(ErrCodeJobCancellation, reason, jobID)
}

// JobExecution returns a JobExecutionError for the given job id and phase.
func JobExecution(jobID, phase string, err error) *AppError {
	return NewWithDetails(ErrCodeJobExecution, fmt.Sprintf("job execution failed during %s", phase),
		fmt.Sprintf("job=%s err=%v", jobID, err))
}

// MessageDelivery returns a MessageDeliveryError for a streaming send failure.
func MessageDelivery(clientID string, retries int) *AppError {
	return NewWithDetails(ErrCodeMessageDelivery, "failed to deliver message to client",
		fmt.Sprintf("client=%s retries=%d", clientID, retries))
}

// ExternalService returns an ExternalServiceError wrapping the underlying cause.
func ExternalService(service string, err error) *AppError {
	return Wrap(ErrCodeExternalService, fmt.Sprintf("%s call failed", service), err)
}

// Transport returns a TransportError carrying a JSON-RPC-shaped code and message.
func Transport(code int, message string) *AppError {
	return NewWithDetails(ErrCodeTransport, message, fmt.Sprintf("rpc_code=%d", code))
}

// BadRequest is a generic 400 for malformed HTTP input.
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message)
}

// NotFound is a generic 404 for a named resource.
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// InternalServer is a generic 500.
func InternalServer(message string) *AppError {
	return New(ErrCodeInternalServer, message)
}

// ServiceUnavailable marks a dependency as not yet initialized.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("%s is not currently available", service))
}
