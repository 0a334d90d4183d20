// Package session owns the identity lifecycle for one storefront session:
// anonymous until a sign-in succeeds, authenticated until sign-out. It is the
// single source of truth the cart store consults to pick its backing mode.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/backend"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/localstore"
)

const defaultTokenType = "Bearer"

// ChangeHook is invoked after every identity transition (login and logout),
// outside the manager's lock.
type ChangeHook func(ctx context.Context, id domain.Identity)

// Manager holds the credential and profile for one session scope.
type Manager struct {
	mu       sync.Mutex
	scope    string
	store    localstore.Store
	logger   *log.Logger
	identity domain.Identity
	hooks    []ChangeHook
}

// New creates a Manager for the given session scope. Call Restore before
// handing it to consumers.
func New(scope string, store localstore.Store, logger *log.Logger) *Manager {
	return &Manager{scope: scope, store: store, logger: logger}
}

// OnChange registers a hook fired after login and logout. Must be called
// during wiring, before the manager is shared.
func (m *Manager) OnChange(fn ChangeHook) {
	m.hooks = append(m.hooks, fn)
}

// Identity returns a copy of the current identity.
func (m *Manager) Identity() domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Authenticated reports whether the session currently holds a credential.
func (m *Manager) Authenticated() bool {
	return m.Identity().Authenticated()
}

// Restore loads a previously persisted credential and profile. Corrupted
// entries are deleted and treated as absent; restore never fails the session
// into a broken state, it degrades to anonymous.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var credential string
	if raw, err := m.store.Get(ctx, m.scope, localstore.KeyCredential); err == nil {
		if jsonErr := json.Unmarshal(raw, &credential); jsonErr != nil {
			m.logger.Printf("session %s: corrupted credential entry, discarding: %v", m.scope, jsonErr)
			m.discard(ctx, localstore.KeyCredential)
			credential = ""
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		m.logger.Printf("session %s: read credential: %v", m.scope, err)
	}

	var profile domain.Profile
	if raw, err := m.store.Get(ctx, m.scope, localstore.KeyProfile); err == nil {
		if jsonErr := json.Unmarshal(raw, &profile); jsonErr != nil {
			m.logger.Printf("session %s: corrupted profile entry, discarding: %v", m.scope, jsonErr)
			m.discard(ctx, localstore.KeyProfile)
			profile = domain.Profile{}
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		m.logger.Printf("session %s: read profile: %v", m.scope, err)
	}

	m.identity = domain.Identity{Credential: credential, Profile: profile}
}

// Login synthesizes the bearer credential from a sign-in result, persists
// credential and profile, and fires the change hooks.
func (m *Manager) Login(ctx context.Context, res backend.SignInResult) error {
	tokenType := res.TokenType
	if tokenType == "" {
		tokenType = defaultTokenType
	}
	id := domain.Identity{
		Credential: tokenType + " " + res.Token,
		Profile:    res.Profile,
	}

	m.mu.Lock()
	if err := m.persist(ctx, localstore.KeyCredential, id.Credential); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist credential: %w", err)
	}
	if err := m.persist(ctx, localstore.KeyProfile, id.Profile); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("persist profile: %w", err)
	}
	m.identity = id
	m.mu.Unlock()

	m.notify(ctx, id)
	return nil
}

// Logout clears the credential and profile, both in memory and persisted,
// and fires the change hooks. The guest cart persisted before login is left
// untouched so it is picked up again once the store switches back to local
// mode.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.discard(ctx, localstore.KeyCredential)
	m.discard(ctx, localstore.KeyProfile)
	m.identity = domain.Identity{}
	m.mu.Unlock()

	m.notify(ctx, domain.Identity{})
}

// UpdateProfile merges the non-zero fields of partial into the stored
// profile and re-persists it. The credential and cart mode are unaffected.
func (m *Manager) UpdateProfile(ctx context.Context, partial domain.Profile) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged := m.identity.Profile.Merge(partial)
	if err := m.persist(ctx, localstore.KeyProfile, merged); err != nil {
		return domain.Profile{}, fmt.Errorf("persist profile: %w", err)
	}
	m.identity.Profile = merged
	return merged, nil
}

func (m *Manager) persist(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.store.Put(ctx, m.scope, key, raw)
}

func (m *Manager) discard(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, m.scope, key); err != nil {
		m.logger.Printf("session %s: delete %s: %v", m.scope, key, err)
	}
}

func (m *Manager) notify(ctx context.Context, id domain.Identity) {
	for _, fn := range m.hooks {
		fn(ctx, id)
	}
}
