package models

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/quickmark/qrvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderThumbnail_ProducesPNGAtRequestedSize(t *testing.T) {
	b, err := RenderThumbnail(sampleDesign(), ThumbnailSize)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailSize, img.Bounds().Dx())
	assert.Equal(t, ThumbnailSize, img.Bounds().Dy())
}

func TestRenderThumbnail_FallbackColors(t *testing.T) {
	d := sampleDesign()
	d.Foreground = "not-a-color"
	d.Background = ""

	b, err := RenderThumbnail(d, 16)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)

	// top-left module is dark; with fallback colors it renders black
	r, g, bl, _ := img.At(1, 1).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, bl)
}

func TestRenderThumbnail_RejectsBadInput(t *testing.T) {
	_, err := RenderThumbnail(Design{Size: 2, Modules: []bool{true}}, 16)
	assert.ErrorIs(t, err, common.ErrMalformedPayload)

	_, err = RenderThumbnail(sampleDesign(), 0)
	assert.ErrorIs(t, err, common.ErrMalformedPayload)
}
