package httpserver

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/localstore"
)

// blockingRemote parks the first FetchCart until released, simulating a
// backend that has stopped answering.
type blockingRemote struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingRemote) FetchCart(_ context.Context, _ string) ([]domain.LineItem, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return nil, nil
}

func (b *blockingRemote) AddItem(_ context.Context, _, _ string) error      { return nil }
func (b *blockingRemote) DecreaseItem(_ context.Context, _, _ string) error { return nil }
func (b *blockingRemote) RemoveItem(_ context.Context, _, _ string) error   { return nil }
func (b *blockingRemote) ClearCart(_ context.Context, _ string) error       { return nil }

func TestSlowSessionRestoreDoesNotBlockOtherSessions(t *testing.T) {
	ctx := context.Background()
	local := localstore.NewMemory()
	logger := log.New(io.Discard, "", 0)

	// Session A carries a persisted credential, so resurrecting it fetches
	// the remote cart, which hangs until released.
	idA := uuid.NewString()
	if err := local.Put(ctx, idA, localstore.KeyCredential, []byte(`"Bearer tok"`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	remote := &blockingRemote{entered: make(chan struct{}), release: make(chan struct{})}
	reg := NewRegistry(local, remote, logger, time.Hour)

	aDone := make(chan struct{})
	go func() {
		defer close(aDone)
		if _, err := reg.Get(ctx, idA); err != nil {
			t.Errorf("get session A: %v", err)
		}
	}()

	select {
	case <-remote.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("session A never reached the backend")
	}

	// Session B is a plain guest session and must not wait for A's restore.
	bDone := make(chan struct{})
	go func() {
		defer close(bDone)
		if _, err := reg.Get(ctx, uuid.NewString()); err != nil {
			t.Errorf("get session B: %v", err)
		}
	}()

	select {
	case <-bDone:
	case <-time.After(2 * time.Second):
		t.Fatal("guest session lookup blocked behind a slow restore")
	}

	close(remote.release)
	<-aDone
}

func TestConcurrentLookupsRestoreOnce(t *testing.T) {
	ctx := context.Background()
	local := localstore.NewMemory()
	logger := log.New(io.Discard, "", 0)

	id := uuid.NewString()
	if err := local.Put(ctx, id, localstore.KeyCredential, []byte(`"Bearer tok"`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	remote := &blockingRemote{entered: make(chan struct{}), release: make(chan struct{})}
	reg := NewRegistry(local, remote, logger, time.Hour)

	results := make(chan *Session, 2)
	for i := 0; i < 2; i++ {
		go func() {
			entry, err := reg.Get(ctx, id)
			if err != nil {
				t.Errorf("get: %v", err)
			}
			results <- entry
		}()
	}

	<-remote.entered
	close(remote.release)

	first, second := <-results, <-results
	if first != second {
		t.Fatal("expected one live pair per session id")
	}
}
