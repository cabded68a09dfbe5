// Package templates persists template records in the local store.
package templates

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

// SQLiteRepository implements Repository on the template_records table.
type SQLiteRepository struct {
	store *store.Store
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(st *store.Store) *SQLiteRepository {
	return &SQLiteRepository{store: st}
}

const templateColumns = `id, title, logo, design, created_at, viewed_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*models.TemplateRecord, error) {
	var r models.TemplateRecord
	var created, viewed, updated int64
	if err := row.Scan(&r.ID, &r.Title, &r.Logo, &r.Design, &created, &viewed, &updated); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.ViewedAt = time.Unix(0, viewed).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return &r, nil
}

func (r *SQLiteRepository) stampTimes(rec *models.TemplateRecord) {
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
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.TemplateRecord) error {
	if rec.ID == "" {
		return common.ErrInvalidIdentifier
	}
	r.stampTimes(rec)
	now := time.Now().UTC()

	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO template_records (id, title, title_folded, logo, design, created_at, viewed_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Title, textx.Fold(rec.Title), rec.Logo, rec.Design,
			rec.CreatedAt.UnixNano(), rec.ViewedAt.UnixNano(), rec.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert template record: %v: %w", err, common.ErrStoreFailure)
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindTemplate, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindTemplate, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	return nil
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *models.TemplateRecord) error {
	if rec.ID == "" {
		return common.ErrInvalidIdentifier
	}
	r.stampTimes(rec)
	now := time.Now().UTC()

	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO template_records (id, title, title_folded, logo, design, created_at, viewed_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				title_folded = excluded.title_folded,
				logo = excluded.logo,
				design = excluded.design,
				viewed_at = excluded.viewed_at,
				updated_at = excluded.updated_at`,
			rec.ID, rec.Title, textx.Fold(rec.Title), rec.Logo, rec.Design,
			rec.CreatedAt.UnixNano(), rec.ViewedAt.UnixNano(), rec.UpdatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to upsert template record: %v: %w", err, common.ErrStoreFailure)
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindTemplate, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindTemplate, Op: store.OpUpsert, RecordID: rec.ID, At: now})
	return nil
}

func (r *SQLiteRepository) Touch(ctx context.Context, id string, at time.Time) error {
	if id == "" {
		return common.ErrInvalidIdentifier
	}
	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE template_records SET viewed_at = ?, updated_at = ? WHERE id = ?`,
			at.UnixNano(), at.UnixNano(), id)
		if err != nil {
			return fmt.Errorf("failed to touch template record: %v: %w", err, common.ErrStoreFailure)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return common.ErrNotFound
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindTemplate, Op: store.OpUpsert, RecordID: id, At: at})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindTemplate, Op: store.OpUpsert, RecordID: id, At: at})
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.TemplateRecord, error) {
	if id == "" {
		return nil, common.ErrInvalidIdentifier
	}
	row := r.store.DB().QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM template_records WHERE id = ? LIMIT 1`, id)
	rec, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select template record: %v: %w", err, common.ErrStoreFailure)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) ([]models.TemplateRecord, error) {
	result := make([]models.TemplateRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.GetByID(ctx, id)
		if err != nil {
			continue
		}
		result = append(result, *rec)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByRowID(ctx context.Context, rowid int64) (*models.TemplateRecord, error) {
	row := r.store.DB().QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM template_records WHERE rowid = ?`, rowid)
	rec, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select template record by rowid: %v: %w", err, common.ErrStoreFailure)
	}
	return rec, nil
}

func (r *SQLiteRepository) RowID(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, common.ErrInvalidIdentifier
	}
	var rowid int64
	err := r.store.DB().QueryRowContext(ctx,
		`SELECT rowid FROM template_records WHERE id = ?`, id).Scan(&rowid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to select template rowid: %v: %w", err, common.ErrStoreFailure)
	}
	return rowid, nil
}

func (r *SQLiteRepository) SearchTitle(ctx context.Context, text string) ([]models.TemplateRecord, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT `+templateColumns+` FROM template_records WHERE instr(title_folded, ?) > 0`,
		textx.Fold(text))
	if err != nil {
		return nil, fmt.Errorf("failed to search template records: %v: %w", err, common.ErrStoreFailure)
	}
	return collectTemplates(rows)
}

func (r *SQLiteRepository) MostRecent(ctx context.Context, k int, by models.OrderBy) ([]models.TemplateRecord, error) {
	var col string
	switch by {
	case models.OrderByCreated:
		col = "created_at"
	case models.OrderByViewed:
		col = "viewed_at"
	default:
		return nil, fmt.Errorf("unknown order %q", by)
	}
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT `+templateColumns+` FROM template_records ORDER BY `+col+` DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to select recent template records: %v: %w", err, common.ErrStoreFailure)
	}
	return collectTemplates(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.TemplateRecord, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		`SELECT `+templateColumns+` FROM template_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to select template records: %v: %w", err, common.ErrStoreFailure)
	}
	return collectTemplates(rows)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if id == "" {
		return common.ErrInvalidIdentifier
	}
	now := time.Now().UTC()
	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM template_records WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete template record: %v: %w", err, common.ErrStoreFailure)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return common.ErrNotFound
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindTemplate, Op: store.OpDelete, RecordID: id, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindTemplate, Op: store.OpDelete, RecordID: id, At: now})
	return nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	now := time.Now().UTC()
	err := dbx.WithTx(ctx, r.store.DB(), nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM template_records`); err != nil {
			return fmt.Errorf("failed to batch-delete template records: %v: %w", err, common.ErrStoreFailure)
		}
		return r.store.LogChange(ctx, tx, store.Change{Kind: models.KindTemplate, Op: store.OpPurge, At: now})
	})
	if err != nil {
		return err
	}
	r.store.Notify(store.Change{Kind: models.KindTemplate, Op: store.OpPurge, At: now})
	return nil
}

func collectTemplates(rows *sql.Rows) ([]models.TemplateRecord, error) {
	defer rows.Close()
	var result []models.TemplateRecord
	for rows.Next() {
		rec, err := scanTemplate(rows)
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
