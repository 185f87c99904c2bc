// Package config loads a Pool's configuration from the environment,
// optionally bootstrapped from a .env file. It is a boundary stub: it
// produces the rcon.PoolConfig the core needs and nothing else (no CORS,
// DB DSN, or JWT secret loading, which belong to the surrounding HTTP
// application and are out of scope here).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mjmorales/rcon-worker-pool/internal/rcon"
)

const (
	defaultPort           = 25575
	defaultWorkerCount    = 3
	defaultSocketTimeout  = 10 * time.Second
	defaultReconnectPause = 5 * time.Second
)

// Load bootstraps a .env file if present (a missing file is not an error;
// a malformed one is) and builds a PoolConfig from the environment.
func Load() (rcon.PoolConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return rcon.PoolConfig{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return FromEnviron()
}

// FromEnviron builds a PoolConfig from the process environment, applying
// the defaults spec.md §6 specifies for anything unset.
func FromEnviron() (rcon.PoolConfig, error) {
	password := os.Getenv("RCON_PASSWORD")
	if password == "" {
		return rcon.PoolConfig{}, fmt.Errorf("config: RCON_PASSWORD is required")
	}

	port, err := intEnv("RCON_PORT", defaultPort)
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	workerCount, err := intEnv("WORKER_COUNT", defaultWorkerCount)
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	retryAttempts, err := intEnv("RCON_RETRY_ATTEMPTS", rcon.InfiniteRetries)
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	socketTimeout, err := durationEnv("RCON_SOCKET_TIMEOUT", defaultSocketTimeout)
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	reconnectPause, err := durationEnv("RECONNECT_PAUSE", defaultReconnectPause)
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	commandDelay, err := durationEnv("RCON_COMMAND_DELAY", 0)
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	gracePeriod, err := timeoutSentinelEnv("SHUTDOWN_GRACE_PERIOD", rcon.Disable())
	if err != nil {
		return rcon.PoolConfig{}, err
	}
	awaitPeriod, err := timeoutSentinelEnv("SHUTDOWN_AWAIT_PERIOD", rcon.NoTimeout())
	if err != nil {
		return rcon.PoolConfig{}, err
	}

	return rcon.PoolConfig{
		Password:            password,
		Port:                port,
		SocketTimeout:       socketTimeout,
		WorkerCount:         workerCount,
		ReconnectPause:      reconnectPause,
		RetryAttempts:       retryAttempts,
		GracePeriod:         gracePeriod,
		AwaitShutdownPeriod: awaitPeriod,
		CommandDelay:        commandDelay,
	}, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return d, nil
}

// timeoutSentinelEnv parses a shutdown-phase timeout field: "disable"/"0"
// skips the phase, "none"/"infinite"/"" (unset) waits indefinitely, and
// anything else is parsed as a time.Duration bound on the phase.
func timeoutSentinelEnv(name string, def *time.Duration) (*time.Duration, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch raw {
	case "":
		return def, nil
	case "disable", "0":
		return rcon.Disable(), nil
	case "none", "infinite":
		return rcon.NoTimeout(), nil
	default:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		return &d, nil
	}
}
