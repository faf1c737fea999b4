package webhook

import (
	"errors"
	"fmt"
)

// Kind identifies why a verification was rejected.
type Kind uint8

const (
	// KindUnknown marks a failure that no stage classified.
	KindUnknown Kind = iota
	KindInvalidHeader
	KindInvalidBody
	KindInvalidConfig
	KindInvalidOption
	KindExpiredEvent
	KindMalformedTimestamp
	KindNetworkFailure
	KindTimeout
	KindHTTPStatus
	KindKeyParseFailure
	KindResponseParseFailure
	KindSignatureMismatch
)

var kindNames = [...]string{
	KindUnknown:              "unknown",
	KindInvalidHeader:        "invalid_header",
	KindInvalidBody:          "invalid_body",
	KindInvalidConfig:        "invalid_config",
	KindInvalidOption:        "invalid_option",
	KindExpiredEvent:         "expired_event",
	KindMalformedTimestamp:   "malformed_timestamp",
	KindNetworkFailure:       "network_failure",
	KindTimeout:              "timeout",
	KindHTTPStatus:           "http_status",
	KindKeyParseFailure:      "key_parse_failure",
	KindResponseParseFailure: "response_parse_failure",
	KindSignatureMismatch:    "signature_mismatch",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is the only error type returned by Verify.
type Error struct {
	Kind    Kind
	Message string
	// Option names the offending option for KindInvalidOption.
	Option string
	// StatusCode is the key endpoint's response status for KindHTTPStatus.
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind, so the
// sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidHeader        = &Error{Kind: KindInvalidHeader, Message: "invalid header signature"}
	ErrInvalidBody          = &Error{Kind: KindInvalidBody, Message: "invalid request body"}
	ErrInvalidConfig        = &Error{Kind: KindInvalidConfig, Message: "invalid configuration"}
	ErrInvalidOption        = &Error{Kind: KindInvalidOption, Message: "invalid option"}
	ErrExpiredEvent         = &Error{Kind: KindExpiredEvent, Message: "expired signature: the webhook is too old"}
	ErrMalformedTimestamp   = &Error{Kind: KindMalformedTimestamp, Message: "malformed triggered_at"}
	ErrNetworkFailure       = &Error{Kind: KindNetworkFailure, Message: "network error"}
	ErrTimeout              = &Error{Kind: KindTimeout, Message: "request timed out"}
	ErrHTTPStatus           = &Error{Kind: KindHTTPStatus, Message: "unexpected HTTP status"}
	ErrKeyParseFailure      = &Error{Kind: KindKeyParseFailure, Message: "invalid signing key"}
	ErrResponseParseFailure = &Error{Kind: KindResponseParseFailure, Message: "invalid signing key response"}
	ErrSignatureMismatch    = &Error{Kind: KindSignatureMismatch, Message: "signature verification failed"}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalidOption(name, format string, args ...any) *Error {
	return &Error{
		Kind:    KindInvalidOption,
		Option:  name,
		Message: fmt.Sprintf("invalid option %q: ", name) + fmt.Sprintf(format, args...),
	}
}

// As returns the *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// KindOf returns the kind of err, or KindUnknown when err carries no *Error.
func KindOf(err error) Kind {
	if e := As(err); e != nil {
		return e.Kind
	}
	return KindUnknown
}

// normalize keeps typed errors as they are and wraps anything else.
func normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e := As(err); e != nil {
		return e
	}
	return &Error{Kind: KindUnknown, Message: "unexpected verification failure", Cause: err}
}
