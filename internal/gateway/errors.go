package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedEnvelope marks a response whose body is not the expected
// {success, message, data, status_code, timestamp} envelope.
var ErrMalformedEnvelope = errors.New("malformed response envelope")

// BusinessError is a well-formed envelope carrying success:false.
type BusinessError struct {
	Op         string
	Message    string
	StatusCode int // status_code from the envelope, 0 when absent
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return e.Op + ": request rejected"
	}
	return e.Op + ": " + e.Message
}

// TransportError covers everything that is not a decoded business answer:
// network failures, non-2xx responses and malformed bodies. Message keeps
// the envelope message when a non-2xx response still carried one.
type TransportError struct {
	Op         string
	StatusCode int // HTTP status, 0 when no response arrived
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuthRejected reports whether err says the bearer token is no longer
// accepted. Callers react by tearing the session down; the client never
// does that itself.
func IsAuthRejected(err error) bool {
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusUnauthorized {
		return true
	}
	var be *BusinessError
	return errors.As(err, &be) && be.StatusCode == http.StatusUnauthorized
}

// IsBusiness reports whether err is a success:false answer.
func IsBusiness(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}

// Message picks the text to show a user for err: the backend's message when
// there is one, otherwise fallback.
func Message(err error, fallback string) string {
	var be *BusinessError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return fallback
}
