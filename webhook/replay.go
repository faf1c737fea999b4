package webhook

import "time"

// layouts accepted for triggered_at, tried in order
var timestampLayouts = []struct {
	layout string
	local  bool
}{
	{layout: time.RFC3339Nano},
	{layout: "2006-01-02T15:04:05.999999999", local: true},
	{layout: "2006-01-02T15:04", local: true},
	{layout: time.DateOnly},
	{layout: time.RFC1123Z},
	{layout: time.RFC1123},
}

// ParseTimestamp parses a triggered_at value with the layouts the replay
// check accepts. Zone-less layouts are read in local time.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, l := range timestampLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// checkReplay rejects events whose triggered_at is older than the threshold.
// Events stamped in the future are accepted to tolerate clock skew.
func checkReplay(event Event, cfg Config, now time.Time) error {
	if !cfg.ReplayVerify {
		return nil
	}

	raw, ok := event.TriggeredAt()
	if !ok {
		return newError(KindMalformedTimestamp, "invalid payload: 'triggered_at' is required and must be a string")
	}

	triggeredAt, ok := ParseTimestamp(raw)
	if !ok {
		return newError(KindMalformedTimestamp, "invalid 'triggered_at' format: %q", raw)
	}

	age := now.UnixMilli() - triggeredAt.UnixMilli()
	if age > cfg.ReplayThreshold.Milliseconds() {
		return newError(KindExpiredEvent, "expired signature: the webhook is too old (age %s, threshold %s)",
			time.Duration(age)*time.Millisecond, cfg.ReplayThreshold)
	}

	return nil
}
