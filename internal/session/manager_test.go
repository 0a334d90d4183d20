package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/backend"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/localstore"
)

func newManager(t *testing.T) (*Manager, localstore.Store) {
	t.Helper()
	store := localstore.NewMemory()
	return New("sess-1", store, log.New(io.Discard, "", 0)), store
}

func TestRestoreWithoutPersistedState(t *testing.T) {
	m, _ := newManager(t)
	m.Restore(context.Background())
	if m.Authenticated() {
		t.Fatal("fresh session must be anonymous")
	}
}

func TestRestoreCorruptedEntriesDegradeToAnonymous(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()
	if err := store.Put(ctx, "sess-1", localstore.KeyCredential, []byte(`{"bad`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Put(ctx, "sess-1", localstore.KeyProfile, []byte(`not json at all`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m.Restore(ctx)

	if m.Authenticated() {
		t.Fatal("corrupted credential must degrade to anonymous")
	}
	if _, err := store.Get(ctx, "sess-1", localstore.KeyCredential); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("corrupted credential entry must be discarded, got %v", err)
	}
	if _, err := store.Get(ctx, "sess-1", localstore.KeyProfile); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("corrupted profile entry must be discarded, got %v", err)
	}
}

func TestLoginSynthesizesBearerCredential(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()

	var hookIdentity domain.Identity
	hookFired := 0
	m.OnChange(func(_ context.Context, id domain.Identity) {
		hookFired++
		hookIdentity = id
	})

	err := m.Login(ctx, backend.SignInResult{
		Token:   "abc123",
		Profile: domain.Profile{ID: 7, Username: "asha", Email: "asha@example.com", Role: "BUYER"},
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	id := m.Identity()
	if id.Credential != "Bearer abc123" {
		t.Fatalf("expected default Bearer prefix, got %q", id.Credential)
	}
	if hookFired != 1 || !hookIdentity.Authenticated() {
		t.Fatalf("expected one authenticated change notification, fired=%d id=%+v", hookFired, hookIdentity)
	}

	raw, err := store.Get(ctx, "sess-1", localstore.KeyCredential)
	if err != nil {
		t.Fatalf("credential not persisted: %v", err)
	}
	if string(raw) != `"Bearer abc123"` {
		t.Fatalf("unexpected persisted credential: %s", raw)
	}
	if _, err := store.Get(ctx, "sess-1", localstore.KeyProfile); err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
}

func TestLoginKeepsExplicitTokenType(t *testing.T) {
	m, _ := newManager(t)
	if err := m.Login(context.Background(), backend.SignInResult{Token: "xyz", TokenType: "Token"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := m.Identity().Credential; got != "Token xyz" {
		t.Fatalf("expected verbatim token type, got %q", got)
	}
}

func TestLogoutClearsIdentityButNotGuestCart(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()

	// A guest cart persisted before login must survive the whole cycle.
	if err := store.Put(ctx, "sess-1", localstore.KeyCart, []byte(`[{"lineId":"p1"}]`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.Login(ctx, backend.SignInResult{Token: "abc"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	hookFired := 0
	m.OnChange(func(_ context.Context, id domain.Identity) {
		hookFired++
		if id.Authenticated() {
			t.Fatal("logout hook must carry an anonymous identity")
		}
	})
	m.Logout(ctx)

	if m.Authenticated() {
		t.Fatal("expected anonymous identity after logout")
	}
	if hookFired != 1 {
		t.Fatalf("expected one change notification, got %d", hookFired)
	}
	if _, err := store.Get(ctx, "sess-1", localstore.KeyCredential); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("credential must be removed on logout, got %v", err)
	}
	if _, err := store.Get(ctx, "sess-1", localstore.KeyCart); err != nil {
		t.Fatalf("guest cart must survive logout: %v", err)
	}
}

func TestUpdateProfileMergesAndPersists(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()

	if err := m.Login(ctx, backend.SignInResult{
		Token:   "abc",
		Profile: domain.Profile{ID: 7, Username: "asha", Email: "asha@example.com"},
	}); err != nil {
		t.Fatalf("login: %v", err)
	}

	merged, err := m.UpdateProfile(ctx, domain.Profile{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if merged.Username != "asha" || merged.Email != "new@example.com" || merged.ID != 7 {
		t.Fatalf("unexpected merge result: %+v", merged)
	}
	if m.Identity().Credential != "Bearer abc" {
		t.Fatal("profile update must not touch the credential")
	}
	if _, err := store.Get(ctx, "sess-1", localstore.KeyProfile); err != nil {
		t.Fatalf("merged profile not persisted: %v", err)
	}
}

// wrappingStore wraps absence errors the way a layered store would, so Get
// never returns the sentinel directly.
type wrappingStore struct {
	localstore.Store
}

func (s wrappingStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	raw, err := s.Store.Get(ctx, scope, key)
	if err != nil {
		return nil, fmt.Errorf("local state %s/%s: %w", scope, key, err)
	}
	return raw, nil
}

func TestRestoreTreatsWrappedNotFoundAsAbsent(t *testing.T) {
	var logs bytes.Buffer
	store := wrappingStore{localstore.NewMemory()}
	m := New("sess-1", store, log.New(&logs, "", 0))

	m.Restore(context.Background())

	if m.Authenticated() {
		t.Fatal("fresh session must be anonymous")
	}
	if logs.Len() != 0 {
		t.Fatalf("wrapped absence must not be logged as a read failure: %s", logs.String())
	}
}
