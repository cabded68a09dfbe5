package qrcodes

import (
	"context"
	"time"

	"github.com/quickmark/qrvault/internal/models"
)

// Repository describes CRUD and query operations for QR records.
// Implementations are backed by the local SQLite store and publish a
// change notification for every successful mutation.
type Repository interface {
	// Insert adds a new record with a caller-supplied identifier.
	// Identifier uniqueness is enforced; inserting a duplicate fails.
	Insert(ctx context.Context, r *models.QRRecord) error

	// Save upserts a record by identifier, preserving CreatedAt on
	// conflict. A zero UpdatedAt is stamped with the current time.
	Save(ctx context.Context, r *models.QRRecord) error

	// Touch advances the record's last-viewed timestamp.
	Touch(ctx context.Context, id string, at time.Time) error

	// GetByID returns one record. Empty id fails with
	// common.ErrInvalidIdentifier, no match with common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.QRRecord, error)

	// GetByIDs resolves identifiers best-effort: ones that fail lookup
	// are silently skipped. Never returns an error for misses.
	GetByIDs(ctx context.Context, ids []string) ([]models.QRRecord, error)

	// GetByRowID resolves the store-native row handle backing a stable
	// reference.
	GetByRowID(ctx context.Context, rowid int64) (*models.QRRecord, error)

	// RowID returns the store-native row handle for an identifier.
	RowID(ctx context.Context, id string) (int64, error)

	// SearchTitle matches a case- and diacritic-insensitive substring of
	// the title. Result size is unbounded.
	SearchTitle(ctx context.Context, text string) ([]models.QRRecord, error)

	// MostRecent returns at most k records sorted descending by the
	// chosen timestamp. Ordering among equal timestamps follows the
	// store's native order and is not deterministic.
	MostRecent(ctx context.Context, k int, by models.OrderBy) ([]models.QRRecord, error)

	// GetAll lists every record of the kind.
	GetAll(ctx context.Context) ([]models.QRRecord, error)

	// DeleteByID removes one record; common.ErrNotFound if absent.
	DeleteByID(ctx context.Context, id string) error

	// DeleteAll removes every record of the kind in one batch statement.
	DeleteAll(ctx context.Context) error
}
