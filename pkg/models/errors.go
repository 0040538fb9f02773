package models

import "errors"

// Sentinel errors for the Provider contract. Backends wrap these so callers
// can classify failures with errors.Is without knowing the backend.
var (
	ErrProviderUnavailable = errors.New("generation provider unavailable")
	ErrInferenceTimeout    = errors.New("generation timeout")
	ErrInvalidResponse     = errors.New("generation provider returned invalid response")
)
