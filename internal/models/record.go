// Package models defines the two record kinds persisted by qrvault and the
// codecs for their opaque payload blobs.
package models

import "time"

// Kind names a record schema. The store holds exactly two kinds.
type Kind string

const (
	KindQR       Kind = "qr"
	KindTemplate Kind = "template"
)

// Kinds lists every known record kind, in the order batch operations
// iterate them.
func Kinds() []Kind {
	return []Kind{KindQR, KindTemplate}
}

// OrderBy selects the timestamp field recency queries sort on.
type OrderBy string

const (
	OrderByCreated OrderBy = "created"
	OrderByViewed  OrderBy = "viewed"
)

// Record is the common surface of both record kinds, used where a caller
// resolves an opaque reference without knowing the kind in advance.
type Record interface {
	RecordKind() Kind
	RecordID() string
}

// QRRecord is a saved QR code design.
//
// ID is caller-supplied, unique within the kind and immutable once
// assigned. CreatedAt is set once at insert. ViewedAt is advanced by the
// surrounding application on read access (via Touch), never by the store
// itself. Design and BuilderConfig are opaque serialized payloads; see
// DecodeDesign and DecodeBuilderConfig for the typed views.
type QRRecord struct {
	ID            string
	Title         string
	Design        []byte
	BuilderConfig []byte
	CreatedAt     time.Time
	ViewedAt      time.Time
	UpdatedAt     time.Time
}

func (r QRRecord) RecordKind() Kind { return KindQR }
func (r QRRecord) RecordID() string { return r.ID }

// TemplateRecord is a reusable design template. Logo is optional and may
// be nil.
type TemplateRecord struct {
	ID        string
	Title     string
	Logo      []byte
	Design    []byte
	CreatedAt time.Time
	ViewedAt  time.Time
	UpdatedAt time.Time
}

func (r TemplateRecord) RecordKind() Kind { return KindTemplate }
func (r TemplateRecord) RecordID() string { return r.ID }
