package xerrors

import (
	"errors"
	"net/http"

	"github.com/garrettladley/csverify/webhook"
)

// FromVerification maps a webhook verification failure to the response the
// receiver sends back. Rejections of the delivery itself are 401, a body that
// is not a JSON object is 400, and failures reaching the key endpoint are 503
// so the platform retries. Everything else is a server misconfiguration.
func FromVerification(err error) *Error {
	if err == nil {
		return nil
	}

	verr := webhook.As(err)
	if verr == nil {
		return Internal(WithMessage("failed to verify webhook"), WithCause(err))
	}

	opts := []Option{WithCode(verr.Kind.String()), WithCause(err)}

	switch verr.Kind {
	case webhook.KindInvalidHeader,
		webhook.KindExpiredEvent,
		webhook.KindMalformedTimestamp,
		webhook.KindSignatureMismatch,
		webhook.KindKeyParseFailure:
		return Unauthorized(append(opts, WithMessage(unauthorizedMessage(verr.Kind)))...)
	case webhook.KindInvalidBody:
		return BadRequest(append(opts, WithMessage("request body must be a JSON object"))...)
	case webhook.KindNetworkFailure,
		webhook.KindTimeout,
		webhook.KindHTTPStatus,
		webhook.KindResponseParseFailure:
		return ServiceUnavailable(append(opts, WithMessage("signing key unavailable"))...)
	default:
		return Internal(append(opts, WithMessage("failed to verify webhook"))...)
	}
}

func unauthorizedMessage(kind webhook.Kind) string {
	switch kind {
	case webhook.KindInvalidHeader:
		return "missing signature header"
	case webhook.KindExpiredEvent:
		return "webhook is too old"
	case webhook.KindMalformedTimestamp:
		return "invalid triggered_at"
	default:
		return "invalid signature"
	}
}

// IsBodyTooLarge reports whether err came from an http.MaxBytesReader.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
