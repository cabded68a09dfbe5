// Package vault is the access facade the application queries and mutates
// records through. It holds no record state of its own: every read
// re-queries the store, and change propagation to sync and search happens
// through the store's notification hub, not through calls from here.
package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/quickmark/qrvault/internal/logging"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/repositories/qrcodes"
	"github.com/quickmark/qrvault/internal/repositories/templates"
	"github.com/quickmark/qrvault/internal/store"
)

type Vault struct {
	qr  qrcodes.Repository
	tpl templates.Repository
	log logging.Logger
}

func New(qr qrcodes.Repository, tpl templates.Repository, log logging.Logger) *Vault {
	if log == nil {
		log = logging.Discard()
	}
	return &Vault{qr: qr, tpl: tpl, log: log}
}

// NewFromStore wires the facade with SQLite repositories on st.
func NewFromStore(st *store.Store, log logging.Logger) *Vault {
	return New(qrcodes.NewSQLiteRepository(st), templates.NewSQLiteRepository(st), log)
}

// --- lookups ---

func (v *Vault) GetQRByID(ctx context.Context, id string) (*models.QRRecord, error) {
	return v.qr.GetByID(ctx, id)
}

func (v *Vault) GetTemplateByID(ctx context.Context, id string) (*models.TemplateRecord, error) {
	return v.tpl.GetByID(ctx, id)
}

func (v *Vault) GetQRsByIDs(ctx context.Context, ids []string) ([]models.QRRecord, error) {
	return v.qr.GetByIDs(ctx, ids)
}

func (v *Vault) GetTemplatesByIDs(ctx context.Context, ids []string) ([]models.TemplateRecord, error) {
	return v.tpl.GetByIDs(ctx, ids)
}

func (v *Vault) SearchQRsByTitle(ctx context.Context, text string) ([]models.QRRecord, error) {
	return v.qr.SearchTitle(ctx, text)
}

func (v *Vault) SearchTemplatesByTitle(ctx context.Context, text string) ([]models.TemplateRecord, error) {
	return v.tpl.SearchTitle(ctx, text)
}

// MostRecentQRs returns at most k records, newest first by the chosen
// timestamp. k below 1 is treated as 1. Ordering among equal timestamps is
// store-native and not deterministic.
func (v *Vault) MostRecentQRs(ctx context.Context, k int, by models.OrderBy) ([]models.QRRecord, error) {
	if k < 1 {
		k = 1
	}
	return v.qr.MostRecent(ctx, k, by)
}

func (v *Vault) MostRecentTemplates(ctx context.Context, k int, by models.OrderBy) ([]models.TemplateRecord, error) {
	if k < 1 {
		k = 1
	}
	return v.tpl.MostRecent(ctx, k, by)
}

func (v *Vault) AllQRs(ctx context.Context) ([]models.QRRecord, error) {
	return v.qr.GetAll(ctx)
}

func (v *Vault) AllTemplates(ctx context.Context) ([]models.TemplateRecord, error) {
	return v.tpl.GetAll(ctx)
}

// AllEntities returns both kinds together.
func (v *Vault) AllEntities(ctx context.Context) ([]models.QRRecord, []models.TemplateRecord, error) {
	qrs, err := v.qr.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	tpls, err := v.tpl.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return qrs, tpls, nil
}

// --- mutation ---

func (v *Vault) InsertQR(ctx context.Context, r *models.QRRecord) error {
	return v.qr.Insert(ctx, r)
}

func (v *Vault) InsertTemplate(ctx context.Context, r *models.TemplateRecord) error {
	return v.tpl.Insert(ctx, r)
}

func (v *Vault) SaveQR(ctx context.Context, r *models.QRRecord) error {
	return v.qr.Save(ctx, r)
}

func (v *Vault) SaveTemplate(ctx context.Context, r *models.TemplateRecord) error {
	return v.tpl.Save(ctx, r)
}

// TouchQR records a read access; the application calls it when a record is
// opened, the store never advances viewed timestamps on its own.
func (v *Vault) TouchQR(ctx context.Context, id string) error {
	return v.qr.Touch(ctx, id, time.Now().UTC())
}

func (v *Vault) TouchTemplate(ctx context.Context, id string) error {
	return v.tpl.Touch(ctx, id, time.Now().UTC())
}

func (v *Vault) DeleteQR(ctx context.Context, id string) error {
	return v.qr.DeleteByID(ctx, id)
}

func (v *Vault) DeleteTemplate(ctx context.Context, id string) error {
	return v.tpl.DeleteByID(ctx, id)
}

// DeleteKind batch-deletes every record of the kind in a single store
// operation.
func (v *Vault) DeleteKind(ctx context.Context, kind models.Kind) error {
	switch kind {
	case models.KindQR:
		return v.qr.DeleteAll(ctx)
	case models.KindTemplate:
		return v.tpl.DeleteAll(ctx)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
}

// DeleteAll batch-deletes every known kind, one statement per kind. The
// operation is not transactional across kinds: if a later kind fails,
// earlier deletions stay deleted.
func (v *Vault) DeleteAll(ctx context.Context) error {
	for _, kind := range models.Kinds() {
		if err := v.DeleteKind(ctx, kind); err != nil {
			v.log.Error(ctx, "delete-all stopped mid-way", "kind", kind, "error", err)
			return fmt.Errorf("deleting kind %s: %w", kind, err)
		}
	}
	return nil
}
