package cache

import "errors"

// ErrInvalidURL is returned when a backend URL cannot be parsed.
var ErrInvalidURL = errors.New("invalid cache URL")
