package rcon

import (
	"context"
	"sync"
)

// Issuer identifies the user who requested a Command. It is opaque to the
// core: the pool never inspects it, only carries it for the caller's own
// logging/authorization bookkeeping.
type Issuer struct {
	Username string
	Role     string
}

// Command is one RCON command string plus everything needed to deliver its
// result and respect its dependencies.
//
// A Command transitions exactly once from pending to settled. completion is
// closed iff the command is settled; if a result was requested and the
// command is settled, AwaitResult returns the server's response or the
// failure. A Command must not be mutated (AddDependency, etc.) once it has
// been submitted to a Pool.
type Command struct {
	// Text is the command string sent verbatim to the RCON server.
	Text string
	// Issuer optionally identifies who asked for this command.
	Issuer *Issuer
	// ID is unique within a batch; zero when this Command is not part of a
	// job submitted together with others.
	ID int

	dependencies []*Command

	mu         sync.Mutex
	hasResult  bool
	settled    bool
	result     string
	err        error
	completion chan struct{}
}

// CommandOption configures a Command at construction time.
type CommandOption func(*Command)

// WithIssuer attaches an Issuer to the Command.
func WithIssuer(issuer *Issuer) CommandOption {
	return func(c *Command) { c.Issuer = issuer }
}

// WithID sets the Command's batch-unique id.
func WithID(id int) CommandOption {
	return func(c *Command) { c.ID = id }
}

// WithResult requests a result slot: without this option the Command is
// fire-and-forget and errors raised while processing it are silently
// dropped.
func WithResult() CommandOption {
	return func(c *Command) { c.hasResult = true }
}

// WithDependencies seeds the Command's dependency list. Dependencies may
// also be added one at a time with AddDependency.
func WithDependencies(deps ...*Command) CommandOption {
	return func(c *Command) { c.dependencies = append(c.dependencies, deps...) }
}

// NewCommand constructs a pending Command for the given command text.
func NewCommand(text string, opts ...CommandOption) *Command {
	c := &Command{
		Text:       text,
		completion: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddDependency records that other must complete before this Command may be
// sent. Only legal before the Command is submitted to a Pool; submitting it
// afterwards is a caller bug and races with the worker's dependency wait.
func (c *Command) AddDependency(other *Command) {
	c.dependencies = append(c.dependencies, other)
}

// Dependencies returns the Commands that must settle before this one sends.
func (c *Command) Dependencies() []*Command {
	return c.dependencies
}

// HasResult reports whether this Command has a result slot, i.e. is not
// fire-and-forget.
func (c *Command) HasResult() bool {
	return c.hasResult
}

// SetResult settles the Command successfully. A no-op if already settled:
// exactly one of SetResult/SetError wins the race to settle a Command.
func (c *Command) SetResult(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return
	}
	c.result = result
	c.settled = true
	close(c.completion)
}

// SetError settles the Command with a failure. A no-op if already settled.
func (c *Command) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return
	}
	c.err = err
	c.settled = true
	close(c.completion)
}

// Settled reports whether the Command has reached a terminal outcome.
func (c *Command) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Wait blocks until the Command is settled, regardless of outcome, or until
// ctx is done.
func (c *Command) Wait(ctx context.Context) error {
	select {
	case <-c.completion:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AwaitResult blocks until the Command settles and returns its result, or
// the error it settled with. Calling this on a fire-and-forget Command
// (HasResult() == false) blocks until completion and then returns ("", nil);
// such commands drop any error that occurred.
func (c *Command) AwaitResult(ctx context.Context) (string, error) {
	if err := c.Wait(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasResult {
		return "", nil
	}
	return c.result, c.err
}
