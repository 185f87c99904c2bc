package rcon

import "sync"

// commandQueue is an unbounded FIFO of Commands supporting the three
// primitives the worker pool needs and the standard library's channels
// don't give us together: a blocking get, a "closed" state that wakes every
// blocked getter, and a join that waits for outstanding (put but not yet
// task-done) items to reach zero. Built from a mutex + condition variable +
// counter, per spec.md §9's suggestion for implementations without a native
// equivalent of asyncio.Queue.
type commandQueue struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []*Command
	closed      bool
	outstanding int
}

func newCommandQueue() *commandQueue {
	q := &commandQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// put enqueues a single command.
func (q *commandQueue) put(c *Command) {
	q.putAll([]*Command{c})
}

// putAll enqueues commands in order under a single lock acquisition, so a
// job's commands are never interleaved with another submission.
func (q *commandQueue) putAll(cmds []*Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, cmds...)
	q.outstanding += len(cmds)
	q.cond.Broadcast()
}

// get blocks until an item is available or the queue is closed and drained,
// in which case ok is false.
func (q *commandQueue) get() (cmd *Command, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	cmd, q.items = q.items[0], q.items[1:]
	return cmd, true
}

// taskDone marks one previously put item as processed. Every get must be
// paired with exactly one taskDone, whether the command succeeded or
// failed, so that join() can observe the queue draining.
func (q *commandQueue) taskDone() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.outstanding--
	if q.outstanding <= 0 {
		q.cond.Broadcast()
	}
}

// join blocks until outstanding reaches zero or ctx is done. If ctx is
// cancelled first, the spawned waiter goroutine is released by the next
// broadcast (the following shutdown phase always closes the queue, which
// broadcasts), not leaked indefinitely.
func (q *commandQueue) join(ctx doneWaiter) error {
	done := make(chan struct{})
	go func() {
		q.mu.Lock()
		for q.outstanding > 0 {
			q.cond.Wait()
		}
		q.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// doneWaiter is the subset of context.Context that join needs; a named
// interface keeps queue.go free of a context import used only here.
type doneWaiter interface {
	Done() <-chan struct{}
	Err() error
}

// size reports the number of items currently queued, for shutdown logging.
func (q *commandQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drainAndClose removes every remaining item, invoking fail on each (the
// pool uses this to settle them with ErrPoolShuttingDown), then marks the
// queue closed so blocked getters wake with ok == false.
func (q *commandQueue) drainAndClose(fail func(*Command)) {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.outstanding = 0
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, c := range items {
		fail(c)
	}
}
