package database

import "errors"

var (
	// ErrInvalidDatabaseURL is returned when pgx cannot parse the connection string.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")

	// ErrConnectionFailed is returned when the pool cannot reach the server.
	ErrConnectionFailed = errors.New("database connection failed")
)
