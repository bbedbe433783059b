package store

import "errors"

// ErrCorruptValue is returned when a stored value cannot be decoded.
var ErrCorruptValue = errors.New("store: corrupt value")
