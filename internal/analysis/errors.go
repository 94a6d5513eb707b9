package analysis

import (
	"errors"
	"net/http"

	"github.com/geacyber/cyberbot/internal/vendor"
)

// RequestError is a failure with the HTTP status and body the routes answer
// with. Tools surface the same fields to the assistant.
type RequestError struct {
	Status int
	// Message becomes the "error" field.
	Message string
	// Detail becomes the "message" field.
	Detail string
	// VendorStatus and Details are set for vendor failures.
	VendorStatus int
	Details      any
	Err          error
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Body renders the error as a JSON object.
func (e *RequestError) Body() map[string]any {
	body := map[string]any{"error": e.Message}
	if e.Detail != "" {
		body["message"] = e.Detail
	}
	if e.VendorStatus != 0 {
		body["statusCode"] = e.VendorStatus
	}
	if e.Details != nil {
		body["details"] = e.Details
	}
	return body
}

func badRequest(msg string) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: msg}
}

// fromVendor maps a client failure. fallback names the operation for
// unexpected errors.
func fromVendor(err error, fallback string) *RequestError {
	var re *RequestError
	if errors.As(err, &re) {
		return re
	}
	if ve, ok := vendor.As(err); ok {
		return &RequestError{
			Status:       ve.HTTPStatus(),
			Message:      ve.Message,
			VendorStatus: ve.StatusCode,
			Details:      ve.DetailsValue(),
			Err:          err,
		}
	}
	return &RequestError{
		Status:  http.StatusInternalServerError,
		Message: fallback,
		Detail:  err.Error(),
		Err:     err,
	}
}

// AsRequestError extracts a *RequestError from err's chain.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
