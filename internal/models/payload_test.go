package models

import (
	"testing"

	"github.com/quickmark/qrvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDesign() Design {
	return Design{
		Size:       2,
		Modules:    []bool{true, false, false, true},
		Foreground: "#000000",
		Background: "#ffffff",
	}
}

func TestDesign_RoundTrip(t *testing.T) {
	d := sampleDesign()

	b, err := EncodeDesign(d)
	require.NoError(t, err)

	got, err := DecodeDesign(b)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestDecodeDesign_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"not json", []byte("{nope")},
		{"matrix mismatch", []byte(`{"size":3,"modules":[true]}`)},
		{"zero size", []byte(`{"size":0,"modules":[]}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDesign(tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedPayload)
		})
	}
}

func TestBuilderConfig_RoundTrip(t *testing.T) {
	c := BuilderConfig{
		Title:  "Wifi at home",
		Type:   "wifi",
		Fields: map[string]string{"ssid": "home", "security": "wpa2"},
	}

	b, err := EncodeBuilderConfig(c)
	require.NoError(t, err)

	got, err := DecodeBuilderConfig(b)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecodeBuilderConfig_Malformed(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("###")} {
		_, err := DecodeBuilderConfig(in)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrMalformedPayload)
	}
}
