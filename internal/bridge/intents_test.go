package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
)

func TestParseScanExtras(t *testing.T) {
	cfg, err := ParseScanExtras(map[string]string{
		ExtraFormats:               "QR_CODE,EAN_13",
		ExtraCharacterSet:          "UTF-8",
		ExtraPrompt:                "Point at a code",
		ExtraWidth:                 "300",
		ExtraHeight:                "200",
		ExtraSaveHistory:           "true",
		ExtraResultDisplayDuration: "1500",
		ExtraCameraID:              "1",
		ExtraOrientationLock:       "portrait",
		ExtraTorchOn:               "true",
	})
	require.Nil(t, err)

	assert.Equal(t, []barcode.Format{barcode.FormatQR, barcode.FormatEAN13}, cfg.Formats)
	assert.Equal(t, "UTF-8", cfg.CharacterSet)
	assert.Equal(t, "Point at a code", cfg.Prompt)
	assert.Equal(t, camera.Size{Width: 300, Height: 200}, cfg.FramingRect)
	assert.True(t, cfg.SaveHistory)
	assert.Equal(t, 1500*time.Millisecond, cfg.ResultDisplayDuration)
	assert.True(t, cfg.PreferFrontCamera)
	assert.Equal(t, camera.OrientationPortrait, cfg.OrientationLock)
	assert.True(t, cfg.TorchOn)
	assert.True(t, cfg.BeepOnScan, "beep defaults on when the extra is absent")
}

func TestParseScanExtrasDefaults(t *testing.T) {
	cfg, err := ParseScanExtras(map[string]string{})
	require.Nil(t, err)
	assert.Empty(t, cfg.Formats)
	assert.True(t, cfg.BeepOnScan)
	assert.False(t, cfg.SaveHistory)
	assert.False(t, cfg.PreferFrontCamera)
	assert.Zero(t, cfg.ResultDisplayDuration)
}

func TestParseScanExtrasRejectsBadValues(t *testing.T) {
	_, err := ParseScanExtras(map[string]string{ExtraWidth: "wide"})
	require.NotNil(t, err)

	_, err = ParseScanExtras(map[string]string{ExtraFormats: "NOT_A_FORMAT"})
	require.NotNil(t, err)

	_, err = ParseScanExtras(map[string]string{ExtraOrientationLock: "diagonal"})
	require.NotNil(t, err)
}

func TestParseScanExtrasBeepOptOut(t *testing.T) {
	cfg, err := ParseScanExtras(map[string]string{ExtraBeepOnScan: "false"})
	require.Nil(t, err)
	assert.False(t, cfg.BeepOnScan)
}

func TestResultExtras(t *testing.T) {
	res := &barcode.Result{
		Text:     "hello",
		Format:   barcode.FormatQR,
		RawBytes: []byte{0x01, 0x02},
		Metadata: barcode.Metadata{
			Orientation:  90,
			ECLevel:      "M",
			ByteSegments: [][]byte{{0x0a}, {0x0b, 0x0c}},
		},
	}
	extras := ResultExtras(res)

	assert.Equal(t, "hello", extras[ExtraText])
	assert.Equal(t, "QR_CODE", extras[ExtraFormat])
	assert.Equal(t, EncodeBase64([]byte{0x01, 0x02}), extras[ExtraRawBytes])
	assert.Equal(t, "90", extras[ExtraOrientation])
	assert.Equal(t, "M", extras[ExtraECLevel])
	assert.Equal(t, EncodeBase64([]byte{0x0a}), extras["byte_segments_0"])
	assert.Equal(t, EncodeBase64([]byte{0x0b, 0x0c}), extras["byte_segments_1"])
}

func TestResultExtrasOmitsAbsentMetadata(t *testing.T) {
	res := &barcode.Result{
		Text:     "plain",
		Format:   barcode.FormatCode128,
		Metadata: barcode.Metadata{Orientation: -1},
	}
	extras := ResultExtras(res)

	assert.NotContains(t, extras, ExtraRawBytes)
	assert.NotContains(t, extras, ExtraOrientation)
	assert.NotContains(t, extras, ExtraECLevel)
	assert.NotContains(t, extras, "byte_segments_0")
}
