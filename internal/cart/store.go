// Package cart implements the dual-mode cart store. A store is either Local
// (guest session, items persisted in the local state store) or Remote
// (authenticated session, items mirrored from the backend's cart service).
// The mode is a tagged state selected from the identity holder, never a
// scattered authentication check.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/localstore"
)

// Mode is the cart's backing store.
type Mode int

const (
	// ModeLocal keeps items in the session-scoped local state store.
	ModeLocal Mode = iota
	// ModeRemote mirrors the backend's cart; the backend is authoritative.
	ModeRemote
)

// Fallback display fields for products added without them.
const (
	defaultUnit   = "kg"
	defaultFarm   = "Local Farm"
	defaultFarmer = "Local Farmer"
)

type identityReader interface {
	Identity() domain.Identity
}

// RemoteCart is the slice of the backend client the store depends on.
type RemoteCart interface {
	FetchCart(ctx context.Context, credential string) ([]domain.LineItem, error)
	AddItem(ctx context.Context, credential, productID string) error
	DecreaseItem(ctx context.Context, credential, lineID string) error
	RemoveItem(ctx context.Context, credential, lineID string) error
	ClearCart(ctx context.Context, credential string) error
}

type state struct {
	mode  Mode
	items []domain.LineItem
}

// Store is the single mutation surface for one session's cart. All
// mutations, including the refetch that follows a remote mutation, run under
// one mutex, so two overlapping mutations cannot interleave their refetches.
type Store struct {
	mu       sync.Mutex
	scope    string
	identity identityReader
	remote   RemoteCart
	local    localstore.Store
	logger   *log.Logger
	state    state
	loaded   bool
}

// New wires a Store for one session. Call Init once before use, and register
// HandleIdentityChange with the session manager so login/logout transitions
// the mode.
func New(scope string, identity identityReader, remote RemoteCart, local localstore.Store, logger *log.Logger) *Store {
	return &Store{
		scope:    scope,
		identity: identity,
		remote:   remote,
		local:    local,
		logger:   logger,
		state:    state{mode: ModeLocal},
	}
}

// Init loads the initial cart for whatever mode the identity dictates.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(ctx)
}

// HandleIdentityChange is the session manager's change hook. Login discards
// the in-memory guest cart (its persisted copy stays) and replaces it with a
// fresh remote fetch; logout discards the remote mirror and restores the
// persisted guest cart. No merge happens in either direction.
func (s *Store) HandleIdentityChange(ctx context.Context, _ domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(ctx); err != nil {
		s.logger.Printf("cart %s: reload after identity change: %v", s.scope, err)
	}
}

// Mode returns the current backing mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.mode
}

// Items returns a copy of the current line items.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LineItem, len(s.state.items))
	copy(out, s.state.items)
	return out
}

// Aggregates recomputes count and total from the current items. Never cached.
func (s *Store) Aggregates() domain.Aggregates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.AggregatesOf(s.state.items)
}

// AddToCart adds one unit of the product. Local mode merges on product id;
// remote mode issues one add request and refetches the authoritative cart.
func (s *Store) AddToCart(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncModeLocked(ctx); err != nil {
		return err
	}

	switch s.state.mode {
	case ModeLocal:
		merged := false
		for i := range s.state.items {
			if s.state.items[i].ProductID == p.ID {
				s.state.items[i].Quantity++
				merged = true
				break
			}
		}
		if !merged {
			s.state.items = append(s.state.items, newLocalLine(p))
		}
		return s.persistLocalLocked(ctx)
	case ModeRemote:
		cred := s.credentialLocked()
		if err := s.remote.AddItem(ctx, cred, p.ID); err != nil {
			return err
		}
		return s.refetchLocked(ctx, cred)
	}
	return nil
}

// RemoveFromCart deletes the line with the given id. Unknown ids are a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncModeLocked(ctx); err != nil {
		return err
	}

	if _, ok := s.findLocked(lineID); !ok {
		return nil
	}

	switch s.state.mode {
	case ModeLocal:
		kept := s.state.items[:0]
		for _, it := range s.state.items {
			if it.LineID != lineID {
				kept = append(kept, it)
			}
		}
		s.state.items = kept
		return s.persistLocalLocked(ctx)
	case ModeRemote:
		cred := s.credentialLocked()
		if err := s.remote.RemoveItem(ctx, cred, lineID); err != nil {
			return err
		}
		return s.refetchLocked(ctx, cred)
	}
	return nil
}

// UpdateQuantity adjusts a line by delta, which must be -1 or +1. A local
// decrement that would reach zero removes the line. A remote increment is
// implemented as "add one more unit of the line's product"; the backend has
// no quantity-set call. Unknown ids are a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, delta int) error {
	if delta != -1 && delta != 1 {
		return fmt.Errorf("delta must be -1 or +1, got %d", delta)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncModeLocked(ctx); err != nil {
		return err
	}

	idx, ok := s.findLocked(lineID)
	if !ok {
		return nil
	}

	switch s.state.mode {
	case ModeLocal:
		if delta == -1 && s.state.items[idx].Quantity <= 1 {
			s.state.items = append(s.state.items[:idx], s.state.items[idx+1:]...)
		} else {
			s.state.items[idx].Quantity += delta
		}
		return s.persistLocalLocked(ctx)
	case ModeRemote:
		cred := s.credentialLocked()
		var err error
		if delta == 1 {
			err = s.remote.AddItem(ctx, cred, s.state.items[idx].ProductID)
		} else {
			err = s.remote.DecreaseItem(ctx, cred, lineID)
		}
		if err != nil {
			return err
		}
		return s.refetchLocked(ctx, cred)
	}
	return nil
}

// ClearCart empties the cart. The remote path sets the in-memory state empty
// directly on success instead of refetching; "cleared" is unambiguous.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncModeLocked(ctx); err != nil {
		return err
	}

	switch s.state.mode {
	case ModeLocal:
		s.state.items = nil
		return s.persistLocalLocked(ctx)
	case ModeRemote:
		if err := s.remote.ClearCart(ctx, s.credentialLocked()); err != nil {
			return err
		}
		s.state.items = nil
	}
	return nil
}

// syncModeLocked enforces the invariant that the backing mode matches the
// identity at the instant a mutation begins. Normally the identity-change
// hook has already transitioned the mode and this is a cheap comparison.
func (s *Store) syncModeLocked(ctx context.Context) error {
	desired := ModeLocal
	if s.identity.Identity().Authenticated() {
		desired = ModeRemote
	}
	if s.loaded && desired == s.state.mode {
		return nil
	}
	return s.reloadLocked(ctx)
}

func (s *Store) reloadLocked(ctx context.Context) error {
	id := s.identity.Identity()
	if id.Authenticated() {
		s.state = state{mode: ModeRemote}
		s.loaded = true
		return s.refetchLocked(ctx, id.Credential)
	}
	s.state = state{mode: ModeLocal, items: s.loadLocal(ctx)}
	s.loaded = true
	return nil
}

// refetchLocked replaces the in-memory items with the backend's cart. The
// backend result is never patched locally.
func (s *Store) refetchLocked(ctx context.Context, credential string) error {
	items, err := s.remote.FetchCart(ctx, credential)
	if err != nil {
		return fmt.Errorf("refetch cart: %w", err)
	}
	s.state.items = items
	return nil
}

// loadLocal reads the persisted guest cart. Corruption and read failures
// degrade to an empty cart; they never fail the session.
func (s *Store) loadLocal(ctx context.Context) []domain.LineItem {
	raw, err := s.local.Get(ctx, s.scope, localstore.KeyCart)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("cart %s: read persisted cart: %v", s.scope, err)
		}
		return nil
	}
	var items []domain.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Printf("cart %s: corrupted persisted cart, discarding: %v", s.scope, err)
		if delErr := s.local.Delete(ctx, s.scope, localstore.KeyCart); delErr != nil {
			s.logger.Printf("cart %s: discard persisted cart: %v", s.scope, delErr)
		}
		return nil
	}
	return items
}

func (s *Store) persistLocalLocked(ctx context.Context) error {
	items := s.state.items
	if items == nil {
		items = []domain.LineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.local.Put(ctx, s.scope, localstore.KeyCart, raw); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) findLocked(lineID string) (int, bool) {
	for i := range s.state.items {
		if s.state.items[i].LineID == lineID {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) credentialLocked() string {
	return s.identity.Identity().Credential
}

func newLocalLine(p domain.Product) domain.LineItem {
	line := domain.LineItem{
		LineID:     p.ID,
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		Quantity:   1,
		Unit:       p.Unit,
		ImageRef:   p.ImageRef,
		FarmName:   p.FarmName,
		FarmerName: p.FarmerName,
	}
	if line.Unit == "" {
		line.Unit = defaultUnit
	}
	if line.FarmName == "" {
		line.FarmName = defaultFarm
	}
	if line.FarmerName == "" {
		line.FarmerName = defaultFarmer
	}
	return line
}
