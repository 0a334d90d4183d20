// Package localstore is the gateway's stand-in for the browser's local
// storage: a key-value store scoped by session id, holding the serialized
// credential, profile and guest cart.
package localstore

import "context"

// Keys under which session-scoped state is persisted.
const (
	KeyCredential = "credential"
	KeyProfile    = "profile"
	KeyCart       = "cart"
)

// Store persists opaque JSON values per (scope, key). Get returns
// domain.ErrNotFound when no value exists.
type Store interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Put(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
}
