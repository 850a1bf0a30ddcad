// Package gatewayerr defines the error kinds the gateway core can produce.
package gatewayerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the error categories the core produces (spec §7).
type Kind int

const (
	KindInvalidInput Kind = iota
	KindUpstreamStatus
	KindUpstreamTimeout
	KindNotFound
	KindExtractionFailed
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindNotFound:
		return "not_found"
	case KindExtractionFailed:
		return "extraction_failed"
	default:
		return "internal"
	}
}

// Error is the single typed error every handler type-switches against at
// the HTTP boundary, instead of re-deriving a status code per call site.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// As reports whether err is (or wraps) a *Error, returning it if so.
func As(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

func InvalidInput(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidInput, Status: http.StatusBadRequest, Message: msg, Cause: cause}
}

func UpstreamStatus(status int, msg string, cause error) *Error {
	return &Error{Kind: KindUpstreamStatus, Status: status, Message: msg, Cause: cause}
}

func UpstreamTimeout(msg string, cause error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Status: http.StatusRequestTimeout, Message: msg, Cause: cause}
}

func NotFound(msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: msg, Cause: cause}
}

func ExtractionFailed(msg string, cause error) *Error {
	return &Error{Kind: KindExtractionFailed, Status: http.StatusInternalServerError, Message: msg, Cause: cause}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: msg, Cause: cause}
}
