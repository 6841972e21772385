package kbexec

import (
	"context"
	"sync"

	uuid "github.com/satori/go.uuid"

	"graphkb-api/internal/kberr"
	"graphkb-api/internal/kblog"
)

// SessionFactory constructs a new Session for the pool to hand out.
// The pool never knows how a Session is wired to a real backing store;
// that is the execution driver's concern (spec.md §1).
type SessionFactory func() (Session, error)

// Pool is a bounded pool of Sessions, modeled on the teacher's
// connection-pool-over-catalog pattern: a buffered channel of permits
// gates concurrency, and sessions are created lazily up to Capacity.
// The query layer itself never touches a Pool; it exists for the host
// runtime described in spec.md §5 to acquire a session, hand off a
// compiled query, and release deterministically on every exit path.
type Pool struct {
	factory  SessionFactory
	permits  chan struct{}
	log      *kblog.Logger

	mu    sync.Mutex
	idle  []Session
}

// NewPool constructs a Pool bounded at capacity sessions.
func NewPool(capacity int, factory SessionFactory) (*Pool, error) {
	if capacity <= 0 {
		return nil, kberr.Internalf("pool capacity must be positive, got %d", capacity)
	}
	p := &Pool{
		factory: factory,
		permits: make(chan struct{}, capacity),
		log:     kblog.New("kbexec.pool"),
	}
	for i := 0; i < capacity; i++ {
		p.permits <- struct{}{}
	}
	return p, nil
}

// Lease holds one session checked out from the pool. Release must be
// called at least once per Lease, typically via defer at the single
// call site that acquired it (spec.md §5); calls after the first are
// no-ops.
type Lease struct {
	id      string
	session Session
	pool    *Pool
	released bool
	mu      sync.Mutex
}

// Session returns the leased session.
func (l *Lease) Session() Session { return l.session }

// ID returns the lease's unique identifier, useful for correlating log
// lines across acquire/execute/release.
func (l *Lease) ID() string { return l.id }

// Release returns the session to the pool. Calling Release more than
// once on the same Lease is a no-op, so a deferred Release composes
// safely with an explicit early Release on a success path.
func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	l.pool.release(l)
}

// Acquire blocks until a permit is free or ctx is done, treating
// context cancellation (e.g. a client disconnect) as a signal to
// abandon the acquisition, per spec.md §5.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case <-p.permits:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	session, err := p.takeIdleOrCreate()
	if err != nil {
		p.permits <- struct{}{}
		return nil, err
	}

	id := uuid.NewV4().String()
	p.log.Trace("session leased", map[string]interface{}{"lease_id": id})
	return &Lease{id: id, session: session, pool: p}, nil
}

func (p *Pool) takeIdleOrCreate() (Session, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()
	return p.factory()
}

func (p *Pool) release(l *Lease) {
	p.mu.Lock()
	p.idle = append(p.idle, l.session)
	p.mu.Unlock()
	p.log.Trace("session released", map[string]interface{}{"lease_id": l.id})
	p.permits <- struct{}{}
}
