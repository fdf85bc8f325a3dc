// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/elara-project/elara"
)

func durationFromNanos(n int64) time.Duration { return time.Duration(n) }

// Pool runs many Sessions concurrently while keeping each one's own
// cooperative single-threaded contract intact (§5: sessions may run in
// parallel, but must not share mutable session state across threads).
// weight bounds how many sessions may be mid-dispatch at once, so a
// server with thousands of idle sessions doesn't spawn thousands of
// concurrently-running goroutines for one inbound burst.
type Pool struct {
	sem *semaphore.Weighted

	mu       sync.RWMutex
	sessions map[elara.SessionId]*Session
}

// NewPool constructs a Pool admitting at most maxConcurrent simultaneous
// per-session dispatches.
func NewPool(maxConcurrent int64) *Pool {
	return &Pool{
		sem:      semaphore.NewWeighted(maxConcurrent),
		sessions: make(map[elara.SessionId]*Session),
	}
}

// Add registers a session with the pool.
func (p *Pool) Add(session *Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[session.id] = session
}

// Remove drops a session from the pool. It does not touch the session's
// own state; callers decide whether the session survives elsewhere.
func (p *Pool) Remove(id elara.SessionId) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, id)
}

// Dispatch runs fn against the named session's goroutine slot, blocking
// until a slot is free or ctx is canceled. Calls for the same session are
// not serialized: two concurrent Dispatch calls may run fn on one session
// at the same time, and Session's mutex guards only its own fields. The
// semaphore only bounds total concurrent dispatches across the whole pool.
func (p *Pool) Dispatch(ctx context.Context, id elara.SessionId, fn func(*Session)) error {
	p.mu.RLock()
	session, ok := p.sessions[id]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("runtime: pool: session %s not found", id)
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("runtime: pool: acquire slot: %w", err)
	}
	defer p.sem.Release(1)
	fn(session)
	return nil
}

// TickAll runs Tick(now) on every registered session, bounded by the
// pool's concurrency cap.
func (p *Pool) TickAll(ctx context.Context, now func(elara.SessionId) int64) {
	p.mu.RLock()
	ids := make([]elara.SessionId, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Dispatch(ctx, id, func(s *Session) {
				s.Tick(durationFromNanos(now(id)))
			})
		}()
	}
	wg.Wait()
}
