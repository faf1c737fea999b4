package webhook

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindTimeout, Message: "request timed out after 1s"})

	if !errors.Is(err, ErrTimeout) {
		t.Error("errors.Is(err, ErrTimeout) = false")
	}
	if errors.Is(err, ErrNetworkFailure) {
		t.Error("errors.Is(err, ErrNetworkFailure) = true")
	}
	if got := KindOf(err); got != KindTimeout {
		t.Errorf("KindOf() = %v, want %v", got, KindTimeout)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindUnknown)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &Error{Kind: KindNetworkFailure, Message: "network error for https://x", Cause: cause}

	if got, want := err.Error(), "network error for https://x: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	seen := make(map[string]Kind)
	for k := KindUnknown; k <= KindSignatureMismatch; k++ {
		s := k.String()
		if prev, ok := seen[s]; ok {
			t.Errorf("%v and %v share name %q", prev, k, s)
		}
		seen[s] = k
	}
	if got := Kind(200).String(); got != "kind(200)" {
		t.Errorf("Kind(200).String() = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if normalize(nil) != nil {
		t.Error("normalize(nil) != nil")
	}

	typed := &Error{Kind: KindExpiredEvent, Message: "old"}
	if got := normalize(fmt.Errorf("ctx: %w", typed)); got != typed {
		t.Errorf("normalize() = %v, want the wrapped *Error", got)
	}

	plain := errors.New("boom")
	got := normalize(plain)
	if got.Kind != KindUnknown || !errors.Is(got, plain) {
		t.Errorf("normalize(plain) = %+v", got)
	}
}
