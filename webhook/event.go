package webhook

import (
	"bytes"
	"errors"

	go_json "github.com/goccy/go-json"
)

// Event is a webhook request body exactly as it was delivered.
//
// The issuer signs its own serialization of the event, so the body must be
// handed over as received rather than decoded and re-encoded.
type Event []byte

var errNotObject = errors.New("body is not a JSON object")

// EventFromValue encodes v as an Event without HTML escaping. Map keys are
// sorted by the encoder, which only matches the issuer's bytes when the
// issuer's key order is sorted too; prefer the raw body when it is available.
func EventFromValue(v any) (Event, error) {
	var buf bytes.Buffer
	enc := go_json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return Event(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Payload returns the bytes covered by the signature: the body with
// insignificant whitespace removed.
func (e Event) Payload() ([]byte, error) {
	var buf bytes.Buffer
	if err := go_json.Compact(&buf, e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// validate reports whether e is a JSON object.
func (e Event) validate() error {
	trimmed := bytes.TrimSpace(e)
	if len(trimmed) == 0 {
		return errors.New("body is empty")
	}
	if trimmed[0] != '{' {
		return errNotObject
	}
	if !go_json.Valid(trimmed) {
		return errors.New("body is not valid JSON")
	}
	return nil
}

type envelope struct {
	TriggeredAt any `json:"triggered_at"`
}

// TriggeredAt returns the raw triggered_at value and whether it is a
// non-empty string.
func (e Event) TriggeredAt() (string, bool) {
	var env envelope
	if err := go_json.Unmarshal(e, &env); err != nil {
		return "", false
	}
	s, ok := env.TriggeredAt.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
