package main

import (
	"errors"

	"github.com/FACorreiaa/tripcost-seeder/internal/types"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitConfig     = 3
	exitDB         = 4
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch {
	case errors.Is(err, types.ErrMissingConfig):
		return exitConfig
	case errors.Is(err, types.ErrInvalidCSV):
		return exitValidation
	}
	return exitFailure
}
