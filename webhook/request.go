package webhook

// validateRequest checks the inputs before any network or crypto work.
func validateRequest(header string, event Event, cfg Config) error {
	if header == "" {
		return newError(KindInvalidHeader, "invalid header signature: empty")
	}

	if err := event.validate(); err != nil {
		return &Error{Kind: KindInvalidBody, Message: "invalid request body", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return &Error{Kind: KindInvalidConfig, Message: "invalid configuration", Cause: err}
	}

	return nil
}
