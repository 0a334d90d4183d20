package httpserver

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/cart"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/localstore"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/session"
)

// Session bundles the per-session identity holder and cart store. Exactly
// one live pair exists per session id.
type Session struct {
	ID       string
	Identity *session.Manager
	Cart     *cart.Store

	init     sync.Once
	lastSeen time.Time
}

// Registry hands out Session pairs keyed by session id. Unknown but
// well-formed ids are resurrected from the persisted local state, so gateway
// restarts do not lose guest carts or credentials.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*Session
	local     localstore.Store
	remote    cart.RemoteCart
	logger    *log.Logger
	idleTTL   time.Duration
	lastSweep time.Time
}

// NewRegistry builds a Registry. idleTTL bounds how long an untouched
// session pair stays resident; its persisted state is unaffected by eviction.
func NewRegistry(local localstore.Store, remote cart.RemoteCart, logger *log.Logger, idleTTL time.Duration) *Registry {
	return &Registry{
		entries:   make(map[string]*Session),
		local:     local,
		remote:    remote,
		logger:    logger,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
	}
}

// Create issues a fresh session id with an empty anonymous session.
func (r *Registry) Create(ctx context.Context) *Session {
	return r.lookup(ctx, uuid.NewString())
}

// Get returns the live pair for id, building it from persisted state when
// the pair is not resident.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("malformed session id: %w", err)
	}
	return r.lookup(ctx, id), nil
}

// lookup registers the entry under the registry lock but restores it outside
// of it: restoring an authenticated session hits the backend, and one slow
// backend call must not stall every other session's lookup. The sync.Once
// keeps concurrent lookups of the same id to a single restore.
func (r *Registry) lookup(ctx context.Context, id string) *Session {
	r.mu.Lock()
	r.sweepLocked()
	entry, ok := r.entries[id]
	if !ok {
		mgr := session.New(id, r.local, r.logger)
		store := cart.New(id, mgr, r.remote, r.local, r.logger)
		mgr.OnChange(store.HandleIdentityChange)
		entry = &Session{ID: id, Identity: mgr, Cart: store}
		r.entries[id] = entry
	}
	entry.lastSeen = time.Now()
	r.mu.Unlock()

	entry.init.Do(func() {
		entry.Identity.Restore(ctx)
		if err := entry.Cart.Init(ctx); err != nil {
			// A failed initial remote fetch leaves an empty remote cart; the
			// next successful mutation or refetch repopulates it.
			r.logger.Printf("session %s: init cart: %v", id, err)
		}
	})
	return entry
}

func (r *Registry) sweepLocked() {
	now := time.Now()
	if now.Sub(r.lastSweep) < time.Minute {
		return
	}
	r.lastSweep = now
	for id, entry := range r.entries {
		if now.Sub(entry.lastSeen) > r.idleTTL {
			delete(r.entries, id)
		}
	}
}
