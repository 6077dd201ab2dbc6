package board

import "errors"

// Sentinel kinds for board errors.
var (
	ErrMissingMarkers = errors.New("document missing board markers")
	ErrBrokenTable    = errors.New("rendered board table is malformed")
)
