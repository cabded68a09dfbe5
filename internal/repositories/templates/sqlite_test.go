package templates

import (
	"context"
	"testing"
	"time"

	"github.com/quickmark/qrvault/internal/common"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewSQLiteRepository(st)
}

func newTemplate(id, title string) *models.TemplateRecord {
	return &models.TemplateRecord{
		ID:     id,
		Title:  title,
		Design: []byte(`{"size":1,"modules":[true]}`),
	}
}

func TestInsertAndGetByID(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	tpl := newTemplate("t1", "Business card")
	tpl.Logo = []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, r.Insert(ctx, tpl))

	got, err := r.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Business card", got.Title)
	assert.Equal(t, tpl.Logo, got.Logo)
}

func TestInsert_LogoIsOptional(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newTemplate("t2", "No logo")))

	got, err := r.GetByID(ctx, "t2")
	require.NoError(t, err)
	assert.Nil(t, got.Logo)
}

func TestGetByID_Errors(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	_, err := r.GetByID(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSearchTitle_Insensitive(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newTemplate("a", "Menü Vorlage")))
	require.NoError(t, r.Insert(ctx, newTemplate("b", "other")))

	got, err := r.SearchTitle(ctx, "menu")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestMostRecent_NonIncreasing(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		tpl := newTemplate(id, id)
		tpl.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, r.Insert(ctx, tpl))
	}

	got, err := r.MostRecent(ctx, 2, models.OrderByCreated)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
}

func TestDeleteAll(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newTemplate("x", "X")))
	require.NoError(t, r.Insert(ctx, newTemplate("y", "Y")))
	require.NoError(t, r.DeleteAll(ctx))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
