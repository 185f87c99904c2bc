package rcon

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PoolEntry is one named Pool tracked by a Registry, plus the bookkeeping a
// caller needs to list and manage it without reaching into Pool internals.
type PoolEntry struct {
	ID      string // Unique identifier for the pool
	Pool    *Pool  // The underlying worker pool
	Name    string // Optional friendly name (e.g. the Minecraft server's name)
	Created int64  // Unix timestamp when the entry was created
}

// Registry provides thread-safe management of multiple named worker pools,
// one per RCON server a gateway talks to. It owns starting and shutting
// down each Pool; callers never call Pool.Start/Shutdown directly on a
// pool obtained through a Registry.
type Registry struct {
	pools map[string]*PoolEntry
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		pools: make(map[string]*PoolEntry),
	}
}

// CreatePool constructs, starts, and registers a new Pool under id. Returns
// an error if id is already taken or if the pool fails to start (e.g. wrong
// password); in the latter case nothing is registered.
func (r *Registry) CreatePool(ctx context.Context, id, name string, config PoolConfig) (*PoolEntry, error) {
	pool, err := NewPool(config)
	if err != nil {
		return nil, err
	}
	return r.registerPool(ctx, id, name, pool)
}

// registerPool starts an already-constructed Pool and registers it under id.
// Split out from CreatePool so tests can register a Pool whose dial func was
// overridden to reach an in-memory fake server instead of a real socket.
func (r *Registry) registerPool(ctx context.Context, id, name string, pool *Pool) (*PoolEntry, error) {
	r.mu.Lock()
	if _, exists := r.pools[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("rcon: pool with id %q already exists", id)
	}
	r.mu.Unlock()

	if err := pool.Start(ctx); err != nil {
		return nil, err
	}

	entry := &PoolEntry{
		ID:      id,
		Pool:    pool,
		Name:    name,
		Created: time.Now().Unix(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pools[id]; exists {
		// Lost a race with a concurrent registration under the same id;
		// don't leak the pool we just started.
		pool.Shutdown(context.Background())
		return nil, fmt.Errorf("rcon: pool with id %q already exists", id)
	}
	r.pools[id] = entry
	return entry, nil
}

// GetPool retrieves an existing entry by id.
func (r *Registry) GetPool(id string) (*PoolEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.pools[id]
	if !exists {
		return nil, fmt.Errorf("rcon: pool with id %q not found", id)
	}
	return entry, nil
}

// ListPools returns a snapshot of all registered entries.
func (r *Registry) ListPools() []*PoolEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*PoolEntry, 0, len(r.pools))
	for _, entry := range r.pools {
		entries = append(entries, entry)
	}
	return entries
}

// RemovePool shuts down and unregisters the pool with the given id.
func (r *Registry) RemovePool(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.pools[id]
	if !exists {
		return fmt.Errorf("rcon: pool with id %q not found", id)
	}

	entry.Pool.Shutdown(ctx)
	delete(r.pools, id)
	return nil
}

// ShutdownAll shuts down every registered pool and clears the registry.
// It runs every shutdown concurrently so one slow pool's grace/await
// periods don't serialize behind another's.
func (r *Registry) ShutdownAll(ctx context.Context) {
	r.mu.Lock()
	entries := make([]*PoolEntry, 0, len(r.pools))
	for _, entry := range r.pools {
		entries = append(entries, entry)
	}
	r.pools = make(map[string]*PoolEntry)
	r.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(entries))
	for _, entry := range entries {
		go func(e *PoolEntry) {
			defer wg.Done()
			e.Pool.Shutdown(ctx)
		}(entry)
	}
	wg.Wait()
}
