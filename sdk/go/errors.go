package emailbuilder

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors returned by the SDK.
var (
	// ErrNoCredentials is returned when neither an API key nor a token is configured.
	ErrNoCredentials = errors.New("emailbuilder: no API key or token configured")

	// ErrUnauthorized is returned when the server rejects the credentials.
	ErrUnauthorized = errors.New("emailbuilder: credentials rejected")
)

// APIError represents an error response from the EmailBuilder API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("emailbuilder: API error %d [%s]: %s", e.StatusCode, e.Code, e.Message)
}

// DeliveryError is returned by SendTemplate when the server rendered the
// email but the provider refused it. Email holds what would have been sent.
type DeliveryError struct {
	APIError
	Email *RenderedEmail
}

func (e *DeliveryError) Unwrap() error {
	return &e.APIError
}

// apiErrorWrapper matches the EmailBuilder API error envelope.
type apiErrorWrapper struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseAPIError(statusCode int, body []byte) error {
	var wrapper apiErrorWrapper
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Code != "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       wrapper.Error.Code,
			Message:    wrapper.Error.Message,
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       "unknown",
		Message:    string(body),
	}
}

// IsAPIError checks whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	apiErr, ok := IsAPIError(err)
	return ok && apiErr.StatusCode == 404
}
