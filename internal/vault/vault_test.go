package vault

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quickmark/qrvault/internal/common"
	"github.com/quickmark/qrvault/internal/models"
	"github.com/quickmark/qrvault/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupVault(t *testing.T) *Vault {
	t.Helper()
	st, err := store.Open(context.Background(), store.Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewFromStore(st, nil)
}

func qr(id, title string) *models.QRRecord {
	return &models.QRRecord{ID: id, Title: title, Design: []byte(`{"size":1,"modules":[true]}`)}
}

func tpl(id, title string) *models.TemplateRecord {
	return &models.TemplateRecord{ID: id, Title: title, Design: []byte(`{"size":1,"modules":[true]}`)}
}

func TestGetQRByID_RoundTrip(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, v.InsertQR(ctx, qr(id, "mine")))

	got, err := v.GetQRByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestGetQRByID_ErrorTaxonomy(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	_, err := v.GetQRByID(ctx, "")
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)

	_, err = v.GetQRByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetQRsByIDs_MixedValidity(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	require.NoError(t, v.InsertQR(ctx, qr("one", "1")))
	require.NoError(t, v.InsertQR(ctx, qr("two", "2")))

	ids := []string{"one", "bogus", "two", ""}
	got, err := v.GetQRsByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.LessOrEqual(t, len(got), len(ids))
	assert.Equal(t, "one", got[0].ID)
	assert.Equal(t, "two", got[1].ID)
}

func TestSearchQRsByTitle_DiacriticInsensitive(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	require.NoError(t, v.InsertQR(ctx, qr("c", "Café")))

	got, err := v.SearchQRsByTitle(ctx, "cafe")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestMostRecentQRs_SevenInsertsTakeThree(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		r := qr(fmt.Sprintf("q-%d", i), "numbered")
		r.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, v.InsertQR(ctx, r))
	}

	got, err := v.MostRecentQRs(ctx, 3, models.OrderByCreated)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "q-6", got[0].ID)
	assert.Equal(t, "q-5", got[1].ID)
	assert.Equal(t, "q-4", got[2].ID)
}

func TestMostRecentQRs_DefaultsToOne(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	require.NoError(t, v.InsertQR(ctx, qr("a", "A")))
	require.NoError(t, v.InsertQR(ctx, qr("b", "B")))

	got, err := v.MostRecentQRs(ctx, 0, models.OrderByCreated)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDeleteKind_LeavesOtherKindAlone(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, v.InsertQR(ctx, qr(fmt.Sprintf("q%d", i), "q")))
	}
	require.NoError(t, v.InsertTemplate(ctx, tpl("t1", "T1")))
	require.NoError(t, v.InsertTemplate(ctx, tpl("t2", "T2")))

	require.NoError(t, v.DeleteKind(ctx, models.KindQR))

	qrs, err := v.AllQRs(ctx)
	require.NoError(t, err)
	assert.Empty(t, qrs)

	tpls, err := v.AllTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, tpls, 2)
}

func TestDeleteAll_EmptiesBothKinds(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	require.NoError(t, v.InsertQR(ctx, qr("q", "Q")))
	require.NoError(t, v.InsertTemplate(ctx, tpl("t", "T")))

	require.NoError(t, v.DeleteAll(ctx))

	qrs, tpls, err := v.AllEntities(ctx)
	require.NoError(t, err)
	assert.Empty(t, qrs)
	assert.Empty(t, tpls)
}

func TestDeleteKind_UnknownKind(t *testing.T) {
	v := setupVault(t)
	require.Error(t, v.DeleteKind(context.Background(), models.Kind("widget")))
}

func TestTouchQR_AdvancesViewed(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	r := qr("seen", "Seen")
	r.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, v.InsertQR(ctx, r))

	before, err := v.GetQRByID(ctx, "seen")
	require.NoError(t, err)

	require.NoError(t, v.TouchQR(ctx, "seen"))

	after, err := v.GetQRByID(ctx, "seen")
	require.NoError(t, err)
	assert.True(t, after.ViewedAt.After(before.ViewedAt))
	assert.Equal(t, before.CreatedAt, after.CreatedAt, "creation timestamp never mutates")
}

func TestGetByReference(t *testing.T) {
	v := setupVault(t)
	ctx := context.Background()

	require.NoError(t, v.InsertQR(ctx, qr("refd", "Referenced")))
	require.NoError(t, v.InsertTemplate(ctx, tpl("treft", "Template")))

	qref, err := v.RefForQR(ctx, "refd")
	require.NoError(t, err)

	rec, ok := v.GetByReference(ctx, qref)
	require.True(t, ok)
	assert.Equal(t, models.KindQR, rec.RecordKind())
	assert.Equal(t, "refd", rec.RecordID())

	tref, err := v.RefForTemplate(ctx, "treft")
	require.NoError(t, err)

	rec, ok = v.GetByReference(ctx, tref)
	require.True(t, ok)
	assert.Equal(t, models.KindTemplate, rec.RecordKind())

	// unresolvable references never error
	_, ok = v.GetByReference(ctx, Ref("@@@not-base64@@@"))
	assert.False(t, ok)

	require.NoError(t, v.DeleteQR(ctx, "refd"))
	_, ok = v.GetByReference(ctx, qref)
	assert.False(t, ok)
}
