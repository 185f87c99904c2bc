package rcon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DisableDuration is the sentinel for a shutdown-phase timeout field that
// means "skip this phase entirely". It is distinct from NoTimeout (nil),
// which means "wait indefinitely for this phase to finish".
const DisableDuration time.Duration = 0

// Disable returns a *time.Duration sentinel meaning "skip this phase".
func Disable() *time.Duration {
	d := DisableDuration
	return &d
}

// NoTimeout returns the nil sentinel meaning "wait indefinitely for this
// phase". Spelled out as a function for symmetry with Disable and so
// callers don't sprinkle untyped nils through config literals.
func NoTimeout() *time.Duration {
	return nil
}

// PoolConfig is the immutable configuration for a Pool, constructed once and
// never mutated afterwards.
type PoolConfig struct {
	Password       string
	Port           int
	SocketTimeout  time.Duration
	WorkerCount    int
	ReconnectPause time.Duration
	RetryAttempts  int

	// GracePeriod bounds phase 1 of shutdown (wait for the queue to drain).
	// Disable() skips the phase; NoTimeout() waits indefinitely.
	GracePeriod *time.Duration
	// AwaitShutdownPeriod bounds phase 3 of shutdown (wait for workers to
	// exit on their own before force-cancelling them).
	AwaitShutdownPeriod *time.Duration
	// CommandDelay is the minimum time a worker waits after a *successful*
	// send before picking up its next command. Zero disables pacing.
	CommandDelay time.Duration
}

// connectionConfig projects the parts of PoolConfig each Connection needs.
func (c PoolConfig) connectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Password:       c.Password,
		Port:           c.Port,
		SocketTimeout:  c.SocketTimeout,
		ReconnectPause: c.ReconnectPause,
		RetryAttempts:  c.RetryAttempts,
	}
}

// Pool is a fixed-size set of worker goroutines, each owning one Connection,
// draining a shared FIFO queue of Commands. See Shutdown for the shutdown
// state machine.
type Pool struct {
	config PoolConfig
	queue  *commandQueue

	clients       []*Connection
	workerCancels []context.CancelFunc
	wg            sync.WaitGroup

	poolShouldShutdown   atomic.Bool
	workerShouldShutdown atomic.Bool
	shutdownOnce         sync.Once

	// dial is overridden by tests to wire connections to an in-memory fake
	// server instead of a real TCP socket.
	dial dialFunc
}

// NewPool validates config and returns an unstarted Pool. Call Start before
// Submit/SubmitJob.
func NewPool(config PoolConfig) (*Pool, error) {
	if config.WorkerCount <= 0 {
		return nil, fmt.Errorf("rcon: worker_count must be > 0, got %d", config.WorkerCount)
	}
	return &Pool{
		config: config,
		queue:  newCommandQueue(),
		dial:   dialLocalhost,
	}, nil
}

// Scope starts the pool, runs body, and unconditionally shuts the pool down
// afterwards regardless of how body returns -- the Go analogue of the
// source's `async with RCONWorkerPool(config) as pool:` context manager.
func (p *Pool) Scope(ctx context.Context, body func(pool *Pool) error) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Shutdown(context.Background())
	return body(p)
}

// Start opens WorkerCount Connections concurrently and, once all of them are
// authenticated, spawns one worker goroutine per Connection. If any
// connection attempt fails with ErrIncorrectPassword that error is returned
// and every connection (including ones that did succeed) is closed; any
// other transport failure is propagated the same way.
func (p *Pool) Start(ctx context.Context) error {
	log.Info().Int("worker_count", p.config.WorkerCount).Msg("rcon: starting worker pool")

	g, gctx := errgroup.WithContext(ctx)
	conns := make([]*Connection, p.config.WorkerCount)

	for i := range conns {
		i := i
		g.Go(func() error {
			conn, err := connect(gctx, p.config.connectionConfig(), p.dial)
			if err != nil {
				return err
			}
			conns[i] = conn
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, conn := range conns {
			if conn != nil {
				conn.Disconnect()
			}
		}
		if errors.Is(err, ErrIncorrectPassword) {
			log.Error().Msg("rcon: one or more workers failed to authenticate")
			return fmt.Errorf("rcon: pool start: %w", ErrIncorrectPassword)
		}
		log.Error().Err(err).Msg("rcon: one or more workers failed to connect")
		return fmt.Errorf("rcon: pool start: %w", err)
	}

	p.clients = conns
	p.workerCancels = make([]context.CancelFunc, len(conns))

	for i, conn := range conns {
		workerCtx, cancel := context.WithCancel(context.Background())
		p.workerCancels[i] = cancel
		p.wg.Add(1)
		go func(id int, conn *Connection) {
			defer p.wg.Done()
			p.runWorker(workerCtx, id, conn)
		}(i, conn)
	}

	log.Info().Msg("rcon: all workers connected")
	return nil
}

// runWorker is the main loop of one worker, owning conn exclusively for its
// lifetime.
func (p *Pool) runWorker(ctx context.Context, id int, conn *Connection) {
	log.Info().Int("worker", id).Msg("rcon: worker starting")
	defer conn.Disconnect()

	for {
		if p.workerShouldShutdown.Load() {
			break
		}

		cmd, ok := p.queue.get()
		if !ok {
			break
		}

		for _, dep := range cmd.Dependencies() {
			if err := dep.Wait(ctx); err != nil {
				// Worker is being force-cancelled; abandon this command
				// rather than send it half-ordered.
				cmd.SetError(err)
				p.queue.taskDone()
				return
			}
		}

		response, err := conn.SendCommand(ctx, cmd.Text)
		p.queue.taskDone()

		if err != nil {
			cmd.SetError(err)
			log.Warn().Int("worker", id).Err(err).Msg("rcon: command failed, reconnecting")

			if recErr := conn.Reconnect(ctx); recErr != nil {
				log.Error().Int("worker", id).Err(recErr).Msg("rcon: worker could not reconnect, exiting")
				conn.Disconnect()
				return
			}
			continue
		}

		cmd.SetResult(response)

		if p.config.CommandDelay > 0 {
			select {
			case <-time.After(p.config.CommandDelay):
			case <-ctx.Done():
				return
			}
		}
	}

	log.Info().Int("worker", id).Msg("rcon: worker shutdown complete")
}

// Submit enqueues a single Command. Fails with ErrPoolShuttingDown once
// shutdown has begun.
func (p *Pool) Submit(cmd *Command) error {
	if p.poolShouldShutdown.Load() {
		return ErrPoolShuttingDown
	}
	p.queue.put(cmd)
	return nil
}

// SubmitJob topologically sorts commands by their dependency edges and
// enqueues them atomically, in sorted order, so a W-worker pool can never
// have a W-sized prefix of the queue consisting entirely of commands whose
// dependencies are still further back in the queue. Fails with
// ErrCycleDetected/ErrDuplicateID without enqueueing anything, and with
// ErrPoolShuttingDown once shutdown has begun.
func (p *Pool) SubmitJob(commands []*Command) error {
	if p.poolShouldShutdown.Load() {
		return ErrPoolShuttingDown
	}

	sorted, err := TopologicalSort(commands)
	if err != nil {
		return err
	}

	p.queue.putAll(sorted)
	return nil
}

// Status is a snapshot of Pool state for introspection (e.g. an MCP/HTTP
// "pool status" call). It reports the core's own state only; it does not
// persist history.
type Status struct {
	QueueDepth  int
	WorkerCount int
}

// Status reports the current queue depth and configured worker count.
func (p *Pool) Status() Status {
	return Status{
		QueueDepth:  p.queue.size(),
		WorkerCount: p.config.WorkerCount,
	}
}

// Shutdown runs the phased graceful shutdown (phases 0-4): stop accepting
// submissions, wait out a grace period for the queue to drain, force-fail
// anything still queued, wait out a budget for workers to exit on their own,
// then cancel any stragglers. Idempotent: a second call
// is a no-op.
func (p *Pool) Shutdown(ctx context.Context) {
	p.shutdownOnce.Do(func() {
		p.shutdown(ctx)
	})
}

func (p *Pool) shutdown(ctx context.Context) {
	log.Info().Msg("rcon: pool shutdown starting")

	// Phase 0: reject new submissions immediately.
	p.poolShouldShutdown.Store(true)

	// Phase 1: grace period for in-flight + already-queued work to finish.
	if !isDisabled(p.config.GracePeriod) {
		joinCtx := ctx
		var cancel context.CancelFunc
		if p.config.GracePeriod != nil {
			joinCtx, cancel = context.WithTimeout(ctx, *p.config.GracePeriod)
		}
		err := p.queue.join(joinCtx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			log.Warn().Int("remaining", p.queue.size()).
				Msg("rcon: grace period expired with items remaining in queue")
		}
	}

	// Phase 2: force-fail whatever is still queued and wake blocked workers.
	p.workerShouldShutdown.Store(true)
	p.queue.drainAndClose(func(c *Command) {
		c.SetError(ErrPoolShuttingDown)
	})

	// Phase 3: wait for workers to exit on their own.
	workersDone := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(workersDone)
	}()

	if !isDisabled(p.config.AwaitShutdownPeriod) {
		if p.config.AwaitShutdownPeriod == nil {
			<-workersDone
		} else {
			select {
			case <-workersDone:
			case <-time.After(*p.config.AwaitShutdownPeriod):
				log.Warn().Msg("rcon: worker shutdown period expired, cancelling workers")
			}
		}
	}

	// Phase 4: force-cancel any stragglers; this is a no-op for workers that
	// already exited in phase 3.
	for _, cancel := range p.workerCancels {
		cancel()
	}
	<-workersDone

	log.Info().Msg("rcon: pool shutdown complete")
}

func isDisabled(d *time.Duration) bool {
	return d != nil && *d == DisableDuration
}
