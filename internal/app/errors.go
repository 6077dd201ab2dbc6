package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrEventPayload  = errors.New("invalid event payload")
	ErrNotConfigured = errors.New("service dependency not configured")
)
