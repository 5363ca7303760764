package barcode

import (
	"image"
	"image/color"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeQR(t *testing.T, text string, size int) image.Image {
	t.Helper()
	img, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	require.NoError(t, err)
	return img
}

func blankImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestDecodeQR(t *testing.T) {
	dec, err := NewDecoder(Options{})
	require.NoError(t, err)

	res, err := dec.Decode(encodeQR(t, "hello", 200))
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, FormatQR, res.Format)
}

func TestDecodeRestrictedToFormats(t *testing.T) {
	dec, err := NewDecoder(Options{Formats: []Format{FormatQR}})
	require.NoError(t, err)

	res, err := dec.Decode(encodeQR(t, "restricted", 200))
	require.NoError(t, err)
	assert.Equal(t, FormatQR, res.Format)
}

func TestDecodeWrongFormatNotFound(t *testing.T) {
	dec, err := NewDecoder(Options{Formats: []Format{FormatCode128}})
	require.NoError(t, err)

	_, err = dec.Decode(encodeQR(t, "not a 1d code", 200))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeBlankImageNotFound(t *testing.T) {
	dec, err := NewDecoder(Options{})
	require.NoError(t, err)

	_, err = dec.Decode(blankImage(160, 120))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewDecoderUnknownCharset(t *testing.T) {
	_, err := NewDecoder(Options{CharacterSet: "KLINGON-8"})
	assert.Error(t, err)
}

func TestValidateCharacterSet(t *testing.T) {
	cs, err := ValidateCharacterSet("UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "UTF-8", cs)

	cs, err = ValidateCharacterSet("")
	require.NoError(t, err)
	assert.Equal(t, "", cs)

	_, err = ValidateCharacterSet("no-such-charset")
	assert.Error(t, err)
}
