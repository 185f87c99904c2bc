package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// InfiniteRetries tells Connect/Reconnect to keep retrying a failed dial
// forever instead of giving up after a fixed number of attempts.
const InfiniteRetries = -1

// ConnectionConfig is the immutable configuration for one Connection.
// Only localhost connections are supported: the RCON password is plaintext
// on the wire, so this client refuses to dial anything but 127.0.0.1/::1.
type ConnectionConfig struct {
	Password string
	Port     int
	// SocketTimeout bounds every individual network operation. Zero means no
	// timeout.
	SocketTimeout time.Duration
	// ReconnectPause is the delay between dial attempts after a failure.
	ReconnectPause time.Duration
	// RetryAttempts is the number of additional attempts after the first.
	// InfiniteRetries retries forever.
	RetryAttempts int
}

// dialFunc abstracts the transport dial so tests can substitute an in-memory
// listener instead of a real TCP socket.
type dialFunc func(ctx context.Context, port int) (net.Conn, error)

func dialLocalhost(ctx context.Context, port int) (net.Conn, error) {
	d := net.Dialer{}
	return d.DialContext(ctx, "tcp", fmt.Sprintf("localhost:%d", port))
}

// Connection is one authenticated TCP connection to the RCON server. It is
// not safe for concurrent use: the pool gives every Connection exactly one
// owning worker, which is what lets SendCommand skip its own locking.
type Connection struct {
	conn          net.Conn
	nextRequestID int32
	config        ConnectionConfig
	dial          dialFunc
}

// Connect opens a TCP connection to the RCON server and authenticates. On
// transport failure it retries per config.RetryAttempts, sleeping
// config.ReconnectPause between attempts; exhausting a finite retry budget
// returns ErrConnectionFailed. An incorrect password returns
// ErrIncorrectPassword and is never retried.
func Connect(ctx context.Context, config ConnectionConfig) (*Connection, error) {
	return connect(ctx, config, dialLocalhost)
}

func connect(ctx context.Context, config ConnectionConfig, dial dialFunc) (*Connection, error) {
	conn, err := dialWithRetry(ctx, config, dial)
	if err != nil {
		return nil, err
	}

	if err := authenticate(ctx, conn, config); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &Connection{
		conn:          conn,
		nextRequestID: 1,
		config:        config,
		dial:          dial,
	}, nil
}

func dialWithRetry(ctx context.Context, config ConnectionConfig, dial dialFunc) (net.Conn, error) {
	attempt := 0
	var lastErr error

	for {
		dialCtx := ctx
		var cancel context.CancelFunc
		if config.SocketTimeout > 0 {
			dialCtx, cancel = context.WithTimeout(ctx, config.SocketTimeout)
		}
		conn, err := dial(dialCtx, config.Port)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return conn, nil
		}
		lastErr = err
		attempt++

		log.Warn().Err(err).Int("attempt", attempt).Int("port", config.Port).
			Msg("rcon dial failed")

		if config.RetryAttempts != InfiniteRetries && attempt > config.RetryAttempts {
			return nil, fmt.Errorf("%w: after %d attempts: %v", ErrConnectionFailed, attempt, lastErr)
		}

		if config.ReconnectPause > 0 {
			select {
			case <-time.After(config.ReconnectPause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

// authenticate sends one AUTH frame with request id 0 and reads the single
// response frame (no multi-packet trick for auth). Response id -1 means the
// password was rejected.
func authenticate(ctx context.Context, conn net.Conn, config ConnectionConfig) error {
	if err := setDeadline(conn, config.SocketTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionError, err)
	}

	if _, err := conn.Write(encodePacket(0, PacketTypeAuth, config.Password)); err != nil {
		return fmt.Errorf("%w: writing auth packet: %v", ErrConnectionError, err)
	}

	resp, err := readPacket(conn)
	if err != nil {
		return classifyReadError(err)
	}

	if resp.ID == -1 {
		return ErrIncorrectPassword
	}

	return nil
}

// SendCommand sends text as a COMMAND packet and returns its response, using
// the dummy-packet trick to know when a multi-packet response is complete:
// immediately after the command, a type-200 DUMMY packet is sent with id
// requestID+1000; the server doesn't recognise it and replies to it with a
// single error packet, which (because responses are ordered) is guaranteed
// to arrive after every part of the real response.
//
// Returns ErrDisconnected if Disconnect has already been called.
// Returns ErrAuthLost if the server reports response id -1 mid-session.
// Returns a wrapped ErrConnectionError/ErrTimeoutError/ErrProtocolError on
// any transport failure; the caller (the worker loop) treats all three the
// same way: fail this command, then Reconnect.
func (c *Connection) SendCommand(ctx context.Context, text string) (string, error) {
	if c.nextRequestID == -1 {
		return "", ErrDisconnected
	}

	c.nextRequestID++
	requestID := c.nextRequestID
	dummyID := requestID + 1000

	if err := setDeadline(c.conn, c.config.SocketTimeout); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectionError, err)
	}
	if _, err := c.conn.Write(encodePacket(requestID, PacketTypeCommand, text)); err != nil {
		return "", fmt.Errorf("%w: writing command packet: %v", ErrConnectionError, err)
	}
	if _, err := c.conn.Write(encodePacket(dummyID, PacketTypeDummy, "")); err != nil {
		return "", fmt.Errorf("%w: writing dummy packet: %v", ErrConnectionError, err)
	}

	var parts strings.Builder
	for {
		if err := setDeadline(c.conn, c.config.SocketTimeout); err != nil {
			return "", fmt.Errorf("%w: %v", ErrConnectionError, err)
		}

		p, err := readPacket(c.conn)
		if err != nil {
			return "", classifyReadError(err)
		}

		switch {
		case p.ID == -1:
			return "", ErrAuthLost
		case p.ID == dummyID:
			return parts.String(), nil
		case p.ID == requestID:
			parts.WriteString(p.Body)
		default:
			// Defensive: should not occur on a single-consumer channel.
			log.Debug().Int32("id", p.ID).Msg("rcon: ignoring frame with unexpected id")
		}
	}
}

// Reconnect closes the current transport (best-effort) and re-runs the same
// retry-then-authenticate dance as Connect. On success next_request_id
// resets to 1; on an authentication failure the connection is closed and
// ErrIncorrectPassword is returned.
func (c *Connection) Reconnect(ctx context.Context) error {
	c.closeQuiet()

	conn, err := dialWithRetry(ctx, c.config, c.dial)
	if err != nil {
		return err
	}

	if err := authenticate(ctx, conn, c.config); err != nil {
		_ = conn.Close()
		return err
	}

	c.conn = conn
	c.nextRequestID = 1
	return nil
}

// Disconnect closes the transport (best-effort, errors swallowed) and marks
// the Connection so that subsequent SendCommand calls fail with
// ErrDisconnected.
func (c *Connection) Disconnect() {
	c.closeQuiet()
	c.nextRequestID = -1
}

func (c *Connection) closeQuiet() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		log.Debug().Err(err).Msg("rcon: error closing connection (ignored)")
	}
	c.conn = nil
}

func setDeadline(conn net.Conn, timeout time.Duration) error {
	if timeout <= 0 {
		return conn.SetDeadline(time.Time{})
	}
	return conn.SetDeadline(time.Now().Add(timeout))
}

// classifyReadError maps a read failure to the taxonomy the worker expects.
// readPacket already wraps short reads as ErrProtocolError; anything else
// (reset, closed, a net.Error timeout) becomes ErrConnectionError/
// ErrTimeoutError.
func classifyReadError(err error) error {
	if errors.Is(err, ErrProtocolError) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeoutError, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionError, err)
}
