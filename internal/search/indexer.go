// Package search keeps an on-device full-text index of QR records,
// eventually consistent with the store via change notifications. Template
// records are deliberately out of scope and never indexed.
package search

import "context"

// Entry is one searchable projection of a QR record.
type Entry struct {
	RecordID    string
	DisplayName string
	Description string
	// Thumbnail is a PNG rendered at a fixed size; nil when rendering
	// failed or the design payload was unusable.
	Thumbnail []byte
}

// Indexer is the search-index capability. Whether indexing is available is
// decided at startup by picking an implementation, not at build time.
type Indexer interface {
	// Start begins projecting store changes into the index. Idempotent.
	Start(ctx context.Context) error

	// Stop halts future projection. Already-indexed entries stay in the
	// index; use Purge for removal.
	Stop()

	// Search matches the indexed display names and descriptions.
	Search(ctx context.Context, query string, limit int) ([]Entry, error)

	// Purge drops every indexed entry.
	Purge(ctx context.Context) error
}

// NoopIndexer is the capability-off implementation: starting succeeds,
// nothing is projected, searches are empty.
type NoopIndexer struct{}

func NewNoopIndexer() *NoopIndexer { return &NoopIndexer{} }

func (*NoopIndexer) Start(context.Context) error { return nil }
func (*NoopIndexer) Stop()                       {}
func (*NoopIndexer) Purge(context.Context) error { return nil }

func (*NoopIndexer) Search(context.Context, string, int) ([]Entry, error) {
	return nil, nil
}
