// Package qrcodes persists QR records in the local store.
package qrcodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quickmark/qrvault/internal/common"
	"github.com/quickmark/qrvault/internal/dbx"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/store"
	"github.com/quickmark/qrvault/internal/textx"
)

// SQLiteRepository implements Repository on the qr_records table. Every
// mutation commits a change-log row in the same transaction and notifies
// the store's subscribers after commit.
type SQLiteRepository struct {
	store *store.Store
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(st *store.Store) *SQLiteRepository {
	return &SQLiteRepository{store: st}
}

const qrColumns = `id, title, design, builder_config, created_at, viewed_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQR(row rowScanner) (*models.QRRecord, error) {
	var r models.QRRecord
	var created, viewed, updated int64
	if err := row.Scan(&r.ID, &r.Title, &r.Design, &r.BuilderConfig, &created, &viewed, &updated); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.ViewedAt = time.Unix(0, viewed).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return &r, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.QRRecord) error {
	if rec.ID == "" {
		return common.ErrInvalidIdentifier
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.ViewedAt.IsZero() {
		rec.ViewedAt = rec.CreatedAt
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO qr_records (id, title, title_folded, design, builder_config, created_at, viewed_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Title, textx.Fold(rec.Title), rec.Design, rec.BuilderConfig,
			rec.CreatedAt.UnixNano(), rec.ViewedAt.UnixNano(), rec.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert qr record: %v: %w", err, common.ErrStoreFailure)
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindQR, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindQR, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	return nil
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *models.QRRecord) error {
	if rec.ID == "" {
		return common.ErrInvalidIdentifier
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.ViewedAt.IsZero() {
		rec.ViewedAt = rec.CreatedAt
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO qr_records (id, title, title_folded, design, builder_config, created_at, viewed_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				title_folded = excluded.title_folded,
				design = excluded.design,
				builder_config = excluded.builder_config,
				viewed_at = excluded.viewed_at,
				updated_at = excluded.updated_at`,
			rec.ID, rec.Title, textx.Fold(rec.Title), rec.Design, rec.BuilderConfig,
			rec.CreatedAt.UnixNano(), rec.ViewedAt.UnixNano(), rec.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to upsert qr record: %v: %w", err, common.ErrStoreFailure)
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindQR, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindQR, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	return nil
}

func (r *SQLiteRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if id == "" {
		return common.ErrInvalidIdentifier
	}
	var affected int64
	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE qr_records SET viewed_at = ?, updated_at = ? WHERE id = ?`,
			at.UnixNano(), at.UnixNano(), id)
		if err != nil {
			return fmt.Errorf("failed to touch qr record: %v: %w", err, common.ErrStoreFailure)
		}
		if affected, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return common.ErrNotFound
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindQR, Op: store.OpUpsert, RecordID: id, At: at})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindQR, Op: store.OpUpsert, RecordID: id, At: at})
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.QRRecord, error) {
	if id == "" {
		return nil, common.ErrInvalidIdentifier
	}
	row := r.store.DB().QueryRowContext(ctx,
		`SELECT `+qrColumns+` FROM qr_records WHERE id = ? LIMIT 1`, id)
	rec, err := scanQR(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select qr record: %v: %w", err, common.ErrStoreFailure)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) ([]models.QRRecord, error) {
	result := make([]models.QRRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.GetByID(ctx, id)
		if err != nil {
			// best-effort: unresolvable identifiers are skipped
			continue
		}
		result = append(result, *rec)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByRowID(ctx context.Context, rowid int64) (*models.QRRecord, error) {
	row := r.store.DB().QueryRowContext(ctx,
		`SELECT `+qrColumns+` FROM qr_records WHERE rowid = ?`, rowid)
	rec, err := scanQR(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select qr record by rowid: %v: %w", err, common.ErrStoreFailure)
	}
	return rec, nil
}

func (r *SQLiteRepository) RowID(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, common.ErrInvalidIdentifier
	}
	var rowid int64
	err := r.store.DB().QueryRowContext(ctx,
		`SELECT rowid FROM qr_records WHERE id = ?`, id).Scan(&rowid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to select qr rowid: %v: %w", err, common.ErrStoreFailure)
	}
	return rowid, nil
}

func (r *SQLiteRepository) SearchTitle(ctx context.Context, text string) ([]models.QRRecord, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT `+qrColumns+` FROM qr_records WHERE instr(title_folded, ?) > 0`,
		textx.Fold(text))
	if err != nil {
		return nil, fmt.Errorf("failed to search qr records: %v: %w", err, common.ErrStoreFailure)
	}
	return collectQRs(rows)
}

func (r *SQLiteRepository) MostRecent(ctx context.Context, k int, by models.OrderBy) ([]models.QRRecord, error) {
	col, err := orderColumn(by)
	if err != nil {
		return nil, err
	}
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT `+qrColumns+` FROM qr_records ORDER BY `+col+` DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to select recent qr records: %v: %w", err, common.ErrStoreFailure)
	}
	return collectQRs(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.QRRecord, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT `+qrColumns+` FROM qr_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to select qr records: %v: %w", err, common.ErrStoreFailure)
	}
	return collectQRs(rows)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return common.ErrInvalidIdentifier
	}
	now := time.Now().UTC()
	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM qr_records WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete qr record: %v: %w", err, common.ErrStoreFailure)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return common.ErrNotFound
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindQR, Op: store.OpDelete, RecordID: id, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindQR, Op: store.OpDelete, RecordID: id, At: now})
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	now := time.Now().UTC()
	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM qr_records`); err != nil {
			return fmt.Errorf("failed to batch-delete qr records: %v: %w", err, common.ErrStoreFailure)
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindQR, Op: store.OpPurge, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindQR, Op: store.OpPurge, At: now})
	return nil
}

func collectQRs(rows *sql.Rows) ([]models.QRRecord, error) {
	defer rows.Close()
	var result []models.QRRecord
	for rows.Next() {
		rec, err := scanQR(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func orderColumn(by models.OrderBy) (string, error) {
	switch by {
	case models.OrderByCreated:
		return "created_at", nil
	case models.OrderByViewed:
		return "viewed_at", nil
	default:
		return "", fmt.Errorf("unknown order %q", by)
	}
}
