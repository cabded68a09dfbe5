// Package store opens and configures the local record database: storage
// location, migrations, and the change-notification plumbing the sync and
// search subsystems observe deltas through.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/quickmark/qrvault/internal/logging"
	"github.com/quickmark/qrvault/internal/store/migrations"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// DatabaseFileName is the fixed database file name inside the shared group
// directory. All processes of the application group open the same file.
const DatabaseFileName = "qrvault.sqlite"

// DeviceIDKey is the metadata key holding this installation's generated
// device identifier.
const DeviceIDKey = "device.id"

// ErrGroupDirUnresolved is returned when a persistent store is requested
// but no shared group directory could be resolved. Continuing without it
// would silently lose all persistence, so callers treat this as fatal.
var ErrGroupDirUnresolved = errors.New("shared group directory unresolved")

// Config selects storage location and behavior at startup. It is passed
// explicitly to Open; there is no ambient singleton.
type Config struct {
	// InMemory backs the store with a discardable in-memory database.
	// Nothing survives process exit and cloud sync is disabled.
	InMemory bool

	// GroupDir is the directory shared by all processes of the
	// application group. Ignored when InMemory is set; required otherwise.
	GroupDir string
}

// Store owns the database handle and the change-notification hub. All
// queries run on a single serialized connection, so concurrent callers are
// cooperatively serialized rather than parallel.
type Store struct {
	db       *sql.DB
	hub      *hub
	log      logging.Logger
	path     string
	inMemory bool
}

// Open opens (creating if needed) the record database described by cfg,
// runs migrations, and starts change tracking.
//
// Open failures are logged and returned; only an unresolvable group
// directory for a persistent store is declared unrecoverable, via
// ErrGroupDirUnresolved.
func Open(ctx context.Context, cfg Config, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Discard()
	}

	var dsn, path string
	switch {
	case cfg.InMemory:
		dsn = ":memory:"
	case cfg.GroupDir == "":
		return nil, ErrGroupDirUnresolved
	default:
		if err := os.MkdirAll(cfg.GroupDir, 0o700); err != nil {
			log.Error(ctx, "cannot create group directory", "dir", cfg.GroupDir, "error", err)
			return nil, fmt.Errorf("creating group directory: %w", err)
		}
		path = filepath.Join(cfg.GroupDir, DatabaseFileName)
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Error(ctx, "cannot open store", "path", path, "error", err)
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// One connection: the single serialized view context all facade
	// operations share.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		log.Error(ctx, "store migration failed", "path", path, "error", err)
		_ = db.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	s := &Store{db: db, hub: newHub(), log: log, path: path, inMemory: cfg.InMemory}
	if err := s.ensureDeviceID(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Info(ctx, "store opened", "path", path, "in_memory", cfg.InMemory)
	return s, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// ensureDeviceID assigns a device identifier on first open. The sync
// engine uses it to name this replica.
func (s *Store) ensureDeviceID(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`,
		DeviceIDKey, []byte(uuid.NewString()))
	if err != nil {
		return fmt.Errorf("assigning device id: %w", err)
	}
	return nil
}

// DB exposes the underlying handle to the repositories.
func (s *Store) DB() *sql.DB { return s.db }

// InMemory reports whether the store is discardable.
func (s *Store) InMemory() bool { return s.inMemory }

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string { return s.path }

// Close stops change notification and closes the database.
func (s *Store) Close() error {
	s.hub.close()
	return s.db.Close()
}
