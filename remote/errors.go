package remote

import (
	"fmt"
	"net/http"

	"emperror.dev/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// KindInvalidURL means the client has no server address or api key, or the
	// address cannot be parsed. No request was made.
	KindInvalidURL Kind = iota + 1
	// KindInvalidArgument means a parameter was rejected locally. No request
	// was made.
	KindInvalidArgument
	// KindTransport covers connection refused, timeouts, DNS and TLS failures.
	KindTransport
	// KindProtocol is a non-2xx answer or a body that could not be decoded.
	KindProtocol
	// KindApplication is a well-formed answer whose status is not "success".
	KindApplication
)

func (k Kind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindApplication:
		return "application"
	}
	return "unknown"
}

// Error is the single failure type returned by every Client operation.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int

	err error
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// Error returns the human readable message for the operator.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// IsKind reports whether err, or any error it wraps, is a remote Error of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

func statusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("HTTP error: %d %s", code, text)
	}
	return fmt.Sprintf("HTTP error: %d", code)
}
