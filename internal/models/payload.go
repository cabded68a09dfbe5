package models

import (
	"encoding/json"
	"fmt"

	"github.com/quickmark/qrvault/internal/common"
)

// Design is the typed view of a record's serialized design payload: the
// module matrix plus the colors it is rendered with.
type Design struct {
	// Size is the module count per side; Modules is row-major with
	// Size*Size entries, true meaning a dark module.
	Size    int    `json:"size"`
	Modules []bool `json:"modules"`

	// Foreground and Background are "#rrggbb" hex colors. Empty values
	// fall back to black on white.
	Foreground string `json:"foreground,omitempty"`
	Background string `json:"background,omitempty"`
}

// BuilderConfig is the typed view of a record's serialized builder
// configuration: what the user entered to produce the design.
type BuilderConfig struct {
	Title  string            `json:"title"`
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields,omitempty"`
}

// EncodeDesign serializes d.
func EncodeDesign(d Design) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding design: %w", err)
	}
	return b, nil
}

// DecodeDesign deserializes a design payload. Malformed bytes or an
// inconsistent module matrix fail with common.ErrMalformedPayload.
func DecodeDesign(b []byte) (Design, error) {
	var d Design
	if len(b) == 0 {
		return d, fmt.Errorf("empty design payload: %w", common.ErrMalformedPayload)
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return Design{}, fmt.Errorf("decoding design: %v: %w", err, common.ErrMalformedPayload)
	}
	if d.Size <= 0 || len(d.Modules) != d.Size*d.Size {
		return Design{}, fmt.Errorf("design matrix %d modules for size %d: %w",
			len(d.Modules), d.Size, common.ErrMalformedPayload)
	}
	return d, nil
}

// EncodeBuilderConfig serializes c.
func EncodeBuilderConfig(c BuilderConfig) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding builder config: %w", err)
	}
	return b, nil
}

// DecodeBuilderConfig deserializes a builder-configuration payload.
// Malformed bytes fail with common.ErrMalformedPayload.
func DecodeBuilderConfig(b []byte) (BuilderConfig, error) {
	if len(b) == 0 {
		return BuilderConfig{}, fmt.Errorf("empty builder config: %w", common.ErrMalformedPayload)
	}
	var c BuilderConfig
	if err := json.Unmarshal(b, &c); err != nil {
		return BuilderConfig{}, fmt.Errorf("decoding builder config: %v: %w", err, common.ErrMalformedPayload)
	}
	return c, nil
}
