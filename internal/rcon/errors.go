package rcon

import "errors"

// Sentinel errors for the RCON core, matched with errors.Is by callers.
var (
	// ErrIncorrectPassword is returned by Connect/Reconnect when the server
	// rejects the configured password. Fatal to the owning Connection.
	ErrIncorrectPassword = errors.New("rcon: incorrect password")

	// ErrConnectionFailed is returned when a connection attempt exhausts its
	// retry budget without establishing a transport connection.
	ErrConnectionFailed = errors.New("rcon: connection failed")

	// ErrProtocolError indicates a short read or malformed frame on the wire.
	ErrProtocolError = errors.New("rcon: protocol error")

	// ErrAuthLost indicates the server answered an in-session command with
	// response id -1, meaning the session is no longer authenticated.
	ErrAuthLost = errors.New("rcon: authentication lost")

	// ErrDisconnected is returned by SendCommand after Disconnect has been called.
	ErrDisconnected = errors.New("rcon: connection is disconnected")

	// ErrPoolShuttingDown is returned by Submit/SubmitJob once shutdown has
	// started, and set as the error on commands force-failed during shutdown.
	ErrPoolShuttingDown = errors.New("rcon: pool is shutting down")

	// ErrCycleDetected is returned by TopologicalSort when the dependency
	// graph contains a cycle.
	ErrCycleDetected = errors.New("rcon: cycle detected in command dependencies")

	// ErrDuplicateID is returned by TopologicalSort when two commands in the
	// same batch share a nonzero id.
	ErrDuplicateID = errors.New("rcon: duplicate command id")

	// ErrConnectionError wraps a transient transport failure (reset, refused,
	// closed mid-frame) observed inside SendCommand. Caught by the worker,
	// which fails the current command and reconnects.
	ErrConnectionError = errors.New("rcon: connection error")

	// ErrTimeoutError wraps a socket deadline expiry observed inside
	// SendCommand. Handled identically to ErrConnectionError by the worker.
	ErrTimeoutError = errors.New("rcon: timeout")
)

// isTransient reports whether err is a failure the worker loop should
// recover from by failing the current command and reconnecting, rather than
// a programming error or a settled business outcome.
func isTransient(err error) bool {
	return errors.Is(err, ErrConnectionError) ||
		errors.Is(err, ErrTimeoutError) ||
		errors.Is(err, ErrAuthLost) ||
		errors.Is(err, ErrProtocolError)
}
