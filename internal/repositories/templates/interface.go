package templates

import (
	"context"
	"time"

	"github.com/quickmark/qrvault/internal/models"
)

// Repository describes CRUD and query operations for template records.
// Semantics match the QR repository; template records are never projected
// into the search index, so mutations here only feed the sync engine.
type Repository interface {
	Insert(ctx context.Context, r *models.TemplateRecord) error
	Save(ctx context.Context, r *models.TemplateRecord) error
	Touch(ctx context.Context, id string, at time.Time) error
	GetByID(ctx context.Context, id string) (*models.TemplateRecord, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.TemplateRecord, error)
	GetByRowID(ctx context.Context, rowid int64) (*models.TemplateRecord, error)
	RowID(ctx context.Context, id string) (int64, error)
	SearchTitle(ctx context.Context, text string) ([]models.TemplateRecord, error)
	MostRecent(ctx context.Context, k int, by models.OrderBy) ([]models.TemplateRecord, error)
	GetAll(ctx context.Context) ([]models.TemplateRecord, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
