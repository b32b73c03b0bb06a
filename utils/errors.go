package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrInvalidRequest     = NewAPIError(http.StatusBadRequest, "Invalid request")
	ErrUnauthorized       = NewAPIError(http.StatusUnauthorized, "Unauthorized")
	ErrForbidden          = NewAPIError(http.StatusForbidden, "Forbidden")
	ErrNotFound           = NewAPIError(http.StatusNotFound, "Resource not found")
	ErrInternalServer     = NewAPIError(http.StatusInternalServerError, "Internal server error")
	ErrServiceUnavailable = NewAPIError(http.StatusServiceUnavailable, "Service unavailable")
)

// Webhook authentication and processing. Signature failures are terminal for
// the request: the payload must not be touched after one of these.
var (
	ErrMissingSignature   = NewAPIError(http.StatusUnauthorized, "Missing webhook signature headers")
	ErrInvalidSignature   = NewAPIError(http.StatusForbidden, "Webhook signature verification failed")
	ErrInvalidPayload     = NewAPIError(http.StatusBadRequest, "Invalid webhook payload")
	ErrMissingOrderID     = NewAPIError(http.StatusBadRequest, "Webhook payload has no order identifier")
	ErrInvalidEmail       = NewAPIError(http.StatusBadRequest, "Invalid email address")
	ErrMissingFields      = NewAPIError(http.StatusBadRequest, "Missing required fields")
	ErrOrderNotFound      = NewAPIError(http.StatusNotFound, "Order not found")
	ErrAlbumEmpty         = NewAPIError(http.StatusNotFound, "Album has no objects to package")
	ErrMissingSecret      = NewAPIError(http.StatusInternalServerError, "Required secret is unavailable")
	ErrLedgerUnavailable  = NewAPIError(http.StatusServiceUnavailable, "Order ledger unavailable")
	ErrStorageUnavailable = NewAPIError(http.StatusServiceUnavailable, "Object storage unavailable")
)

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// GetHTTPStatusFromError maps an error to the response status. Unrecognized
// errors map to 500 so dependency failures surface as retryable to webhook
// senders.
func GetHTTPStatusFromError(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return http.StatusInternalServerError
}

func LogError(ctx context.Context, err error, message string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}

	fields["error"] = err.Error()

	Error(ctx, message, fields)
}
