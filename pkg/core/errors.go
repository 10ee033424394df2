package core

import "errors"

// ErrInvalidConfiguration is returned when a query is configured with a non-positive surface,
// a non-positive grid, or an unusable zone list. It is reported before any sample is scanned.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrNotFound is returned by stores when a match or run does not exist.
var ErrNotFound = errors.New("not found")
