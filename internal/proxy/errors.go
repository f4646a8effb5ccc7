package proxy

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ServiceError.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindTimeout      ErrorKind = "timeout"
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnauthorized ErrorKind = "invalid_credential"
	KindForbidden    ErrorKind = "forbidden"
	KindUpstream     ErrorKind = "upstream"
	KindMalformed    ErrorKind = "malformed_response"
)

// ServiceError is every failure the external text service can produce.
// Code is the HTTP status, or 0 when no response was received.
type ServiceError struct {
	Code    int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Recoverable reports whether the same credential may work later. Invalid
// or forbidden credentials need reconfiguration.
func (e *ServiceError) Recoverable() bool {
	return e.Kind != KindUnauthorized && e.Kind != KindForbidden
}

// AsServiceError extracts a *ServiceError from err's chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func statusError(code int, body string) *ServiceError {
	se := &ServiceError{Code: code}
	switch code {
	case 429:
		se.Kind, se.Message = KindRateLimited, "rate limited"
	case 401:
		se.Kind, se.Message = KindUnauthorized, "invalid credential"
	case 403:
		se.Kind, se.Message = KindForbidden, "access forbidden"
	default:
		se.Kind, se.Message = KindUpstream, "unexpected status"
	}
	if body != "" {
		se.Err = errors.New(body)
	}
	return se
}
