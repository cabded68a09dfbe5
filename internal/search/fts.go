package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/quickmark/qrvault/internal/common"
	"github.com/quickmark/qrvault/internal/logging"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/repositories/qrcodes"
	"github.com/quickmark/qrvault/internal/store"
)

const (
	// fallbackDisplayName is used when a record has no title.
	fallbackDisplayName = "QR code"
	// fallbackDescription is used when the builder-configuration payload
	// is absent or undecodable.
	fallbackDescription = "Saved QR design"
)

// FTSIndexer projects QR records into the qr_index FTS5 table whenever the
// store signals a change.
type FTSIndexer struct {
	store *store.Store
	qr    qrcodes.Repository
	log   logging.Logger

	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

var _ Indexer = (*FTSIndexer)(nil)

func NewFTSIndexer(st *store.Store, qr qrcodes.Repository, log logging.Logger) *FTSIndexer {
	if log == nil {
		log = logging.Discard()
	}
	return &FTSIndexer{store: st, qr: qr, log: log}
}

// Start subscribes to store changes and projects QR mutations until Stop
// or ctx cancellation. Calling Start on a running indexer is a no-op.
func (ix *FTSIndexer) Start(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.cancel != nil {
		return nil
	}

	ch, unsubscribe := ix.store.Subscribe(64)
	done := make(chan struct{})
	ix.cancel = unsubscribe
	ix.done = done

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-ch:
				if !ok {
					return
				}
				ix.apply(ctx, change)
			}
		}
	}()

	ix.log.Info(ctx, "search indexing started")
	return nil
}

// Stop halts projection. Entries indexed so far remain searchable; this is
// a documented property of the toggle, not an oversight.
func (ix *FTSIndexer) Stop() {
	ix.mu.Lock()
	cancel, done := ix.cancel, ix.done
	ix.cancel, ix.done = nil, nil
	ix.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (ix *FTSIndexer) apply(ctx context.Context, change store.Change) {
	if change.Kind != models.KindQR {
		return
	}
	switch change.Op {
	case store.OpUpsert:
		ix.project(ctx, change.RecordID)
	case store.OpDelete:
		ix.remove(ctx, change.RecordID)
	case store.OpPurge:
		if err := ix.Purge(ctx); err != nil {
			ix.log.Warn(ctx, "index purge failed", "error", err)
		}
	}
}

// project derives the searchable attribute set for one record and replaces
// its index row.
func (ix *FTSIndexer) project(ctx context.Context, id string) {
	rec, err := ix.qr.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		// deleted between notification and projection
		ix.remove(ctx, id)
		return
	}
	if err != nil {
		ix.log.Warn(ctx, "index projection lookup failed", "id", id, "error", err)
		return
	}

	entry := Entry{
		RecordID:    rec.ID,
		DisplayName: rec.Title,
		Description: fallbackDescription,
	}
	if entry.DisplayName == "" {
		entry.DisplayName = fallbackDisplayName
	}
	if cfg, err := models.DecodeBuilderConfig(rec.BuilderConfig); err == nil && cfg.Title != "" {
		entry.Description = cfg.Title
	}
	if design, err := models.DecodeDesign(rec.Design); err == nil {
		thumb, err := models.RenderThumbnail(design, models.ThumbnailSize)
		if err != nil {
			// tolerated: the entry simply has no thumbnail
			ix.log.Debug(ctx, "thumbnail render failed", "id", id, "error", err)
		} else {
			entry.Thumbnail = thumb
		}
	}

	db := ix.store.DB()
	if _, err := db.ExecContext(ctx, `DELETE FROM qr_index WHERE record_id = ?`, entry.RecordID); err != nil {
		ix.log.Warn(ctx, "index row replace failed", "id", id, "error", err)
		return
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO qr_index (record_id, display_name, description, thumbnail) VALUES (?, ?, ?, ?)`,
		entry.RecordID, entry.DisplayName, entry.Description, entry.Thumbnail)
	if err != nil {
		ix.log.Warn(ctx, "index row insert failed", "id", id, "error", err)
	}
}

func (ix *FTSIndexer) remove(ctx context.Context, id string) {
	if _, err := ix.store.DB().ExecContext(ctx, `DELETE FROM qr_index WHERE record_id = ?`, id); err != nil {
		ix.log.Warn(ctx, "index row delete failed", "id", id, "error", err)
	}
}

// Search runs an FTS match over display names and descriptions. The query
// is quoted, so it behaves as a literal phrase prefix rather than FTS
// syntax.
func (ix *FTSIndexer) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 25
	}
	match := `"` + strings.ReplaceAll(query, `"`, `""`) + `"*`
	rows, err := ix.store.DB().QueryContext(ctx,
		`SELECT record_id, display_name, description, thumbnail
		 FROM qr_index WHERE qr_index MATCH ? ORDER BY rank LIMIT ?`,
		match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RecordID, &e.DisplayName, &e.Description, &e.Thumbnail); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Purge drops every indexed entry.
func (ix *FTSIndexer) Purge(ctx context.Context) error {
	if _, err := ix.store.DB().ExecContext(ctx, `DELETE FROM qr_index`); err != nil {
		return fmt.Errorf("failed to purge index: %w", err)
	}
	return nil
}
