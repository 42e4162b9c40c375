package migration

import (
	"errors"
	"fmt"
)

// Format violations reported by Parse, wrapped in a *FormatError.
var (
	ErrUpNotFirst      = errors.New("up migration must come first")
	ErrMultipleUp      = errors.New("only one up migration allowed")
	ErrMultipleDown    = errors.New("only one down migration allowed")
	ErrMissingSection  = errors.New("both up and down migrations must be defined")
	ErrInvalidFilename = errors.New("migration filename is not valid UTF-8")
)

// FormatError describes a malformed migration file.
type FormatError struct {
	Name string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad migration file format in %s: %v", e.Name, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// ErrEmptyName indicates Scaffold was called without a migration name.
var ErrEmptyName = errors.New("migration name is required")

// ErrFileExists indicates Scaffold would overwrite an existing file.
var ErrFileExists = errors.New("migration file already exists")
