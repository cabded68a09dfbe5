package metadata

import "context"

// Repository is a small key/value store on the metadata table. The sync
// engine keeps its change-log cursor here; the store keeps the device id.
// Get returns nil (no error) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
