package container

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/h2non/filetype/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))
	assert.Equal(t, matchers.TypePng, Match(pngBuf.Bytes()))

	var jpegBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpegBuf, img, nil))
	assert.Equal(t, matchers.TypeJpeg, Match(jpegBuf.Bytes()))

	avifHeader := []byte{0x00, 0x00, 0x00, 0x1c, 'f', 't', 'y', 'p', 'a', 'v', 'i', 'f'}
	assert.Equal(t, TypeAvif, Match(avifHeader))
}

func TestParseEncoding(t *testing.T) {
	t.Parallel()

	enc, err := ParseEncoding("avif")
	require.NoError(t, err)
	assert.Equal(t, EncodingAVIF, enc)

	enc, err = ParseEncoding("jpeg")
	require.NoError(t, err)
	assert.Equal(t, EncodingJPEG, enc)

	enc, err = ParseEncoding("jpg")
	require.NoError(t, err)
	assert.Equal(t, EncodingJPEG, enc)

	_, err = ParseEncoding("webp")
	assert.Error(t, err)
	_, err = ParseEncoding("")
	assert.Error(t, err)
}

func TestEncodingProperties(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/avif", EncodingAVIF.Mime())
	assert.Equal(t, "image/jpeg", EncodingJPEG.Mime())

	assert.Equal(t, "avif", EncodingAVIF.Ext())
	assert.Equal(t, "jpg", EncodingJPEG.Ext())

	assert.Equal(t, "avif", EncodingAVIF.String())
	assert.Equal(t, "jpeg", EncodingJPEG.String())
}
