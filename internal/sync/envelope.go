package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/quickmark/qrvault/internal/cryptox"
	"github.com/quickmark/qrvault/internal/models"
)

// envelope is the cloud representation of a record. It is sealed with the
// container key before upload, so the object store only ever sees
// ciphertext.
type envelope struct {
	Kind          models.Kind `json:"kind"`
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Design        []byte      `json:"design,omitempty"`
	BuilderConfig []byte      `json:"builder_config,omitempty"`
	Logo          []byte      `json:"logo,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	ViewedAt      time.Time   `json:"viewed_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func envelopeFromQR(r models.QRRecord) envelope {
	return envelope{
		Kind:          models.KindQR,
		ID:            r.ID,
		Title:         r.Title,
		Design:        r.Design,
		BuilderConfig: r.BuilderConfig,
		CreatedAt:     r.CreatedAt,
		ViewedAt:      r.ViewedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func envelopeFromTemplate(r models.TemplateRecord) envelope {
	return envelope{
		Kind:      models.KindTemplate,
		ID:        r.ID,
		Title:     r.Title,
		Logo:      r.Logo,
		Design:    r.Design,
		CreatedAt: r.CreatedAt,
		ViewedAt:  r.ViewedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (e envelope) qrRecord() *models.QRRecord {
	return &models.QRRecord{
		ID:            e.ID,
		Title:         e.Title,
		Design:        e.Design,
		BuilderConfig: e.BuilderConfig,
		CreatedAt:     e.CreatedAt,
		ViewedAt:      e.ViewedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (e envelope) templateRecord() *models.TemplateRecord {
	return &models.TemplateRecord{
		ID:        e.ID,
		Title:     e.Title,
		Logo:      e.Logo,
		Design:    e.Design,
		CreatedAt: e.CreatedAt,
		ViewedAt:  e.ViewedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func sealEnvelope(e envelope, key []byte) ([]byte, error) {
	plain, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	sealed, err := cryptox.Seal(plain, key)
	if err != nil {
		return nil, fmt.Errorf("sealing envelope: %w", err)
	}
	return sealed, nil
}

func openEnvelope(sealed, key []byte) (envelope, error) {
	plain, err := cryptox.Open(sealed, key)
	if err != nil {
		return envelope{}, fmt.Errorf("opening envelope: %w", err)
	}
	var e envelope
	if err := json.Unmarshal(plain, &e); err != nil {
		return envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	return e, nil
}
