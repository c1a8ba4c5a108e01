package types

import "errors"

var (
	ErrNotFound      = errors.New("requested item not found")
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidCSV    = errors.New("invalid csv input")
)
