package rcon

import (
	"os"

	"github.com/rs/zerolog"
)

// log is the package-level structured logger used by the connection and the
// worker pool. Callers of this package configure zerolog's global
// level; this logger just adds the "component" field.
var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().
	Str("component", "rcon").
	Logger()
