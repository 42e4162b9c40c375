package config

import "errors"

// Environment errors. Both are wrapped with the offending variable name.
var (
	ErrMissingEnv   = errors.New("required environment variable")
	ErrBadEnvFormat = errors.New("couldn't parse environment variable")
)
