package net

import (
	"net/http"

	perr "marketfeed/internal/platform/errors"
)

// Wire is a common envelope used by transports that cannot import the http package
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Kind       string         `json:"kind,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Error builds an error envelope
func Error(err error, reqID string) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{StatusCode: http.StatusOK, Status: http.StatusText(http.StatusOK), RequestID: reqID}
	}
	status := perr.HTTPStatus(err)
	w := perr.WireFrom(err)
	return status, Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Kind:       w.Kind,
		Error:      w.Message,
		RequestID:  reqID,
	}
}
