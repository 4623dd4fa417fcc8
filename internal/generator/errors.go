package generator

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid generator configuration")
	ErrEmptyPalette  = errors.New("palette must contain at least one color")
	ErrNilScene      = errors.New("scene is required")
	ErrClosed        = errors.New("generator is closed")
)
