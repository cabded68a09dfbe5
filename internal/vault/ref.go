package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/quickmark/qrvault/internal/models"
)

// Ref is an opaque stable reference to a record, distinct from the
// record's identifier field. It encodes the kind and the store-native row
// handle and stays valid across process launches.
type Ref string

func makeRef(kind models.Kind, rowid int64) Ref {
	raw := fmt.Sprintf("%s#%d", kind, rowid)
	return Ref(base64.RawURLEncoding.EncodeToString([]byte(raw)))
}

func parseRef(ref Ref) (models.Kind, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(string(ref))
	if err != nil {
		return "", 0, fmt.Errorf("undecodable reference: %w", err)
	}
	kind, num, ok := strings.Cut(string(raw), "#")
	if !ok {
		return "", 0, fmt.Errorf("malformed reference %q", raw)
	}
	rowid, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed reference row %q: %w", num, err)
	}
	return models.Kind(kind), rowid, nil
}

// RefForQR mints a stable reference for an existing QR record.
func (v *Vault) RefForQR(ctx context.Context, id string) (Ref, error) {
	rowid, err := v.qr.RowID(ctx, id)
	if err != nil {
		return "", err
	}
	return makeRef(models.KindQR, rowid), nil
}

// RefForTemplate mints a stable reference for an existing template record.
func (v *Vault) RefForTemplate(ctx context.Context, id string) (Ref, error) {
	rowid, err := v.tpl.RowID(ctx, id)
	if err != nil {
		return "", err
	}
	return makeRef(models.KindTemplate, rowid), nil
}

// GetByReference resolves a stable reference to a record of either kind.
// An unresolvable reference yields (nil, false), never an error.
func (v *Vault) GetByReference(ctx context.Context, ref Ref) (models.Record, bool) {
	kind, rowid, err := parseRef(ref)
	if err != nil {
		return nil, false
	}
	switch kind {
	case models.KindQR:
		rec, err := v.qr.GetByRowID(ctx, rowid)
		if err != nil {
			return nil, false
		}
		return *rec, true
	case models.KindTemplate:
		rec, err := v.tpl.GetByRowID(ctx, rowid)
		if err != nil {
			return nil, false
		}
		return *rec, true
	default:
		return nil, false
	}
}
