package bridge

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

// Intent extra keys for the intra-app request/response surface.
const (
	ExtraFormats               = "formats"
	ExtraCharacterSet          = "character_set"
	ExtraPrompt                = "prompt_message"
	ExtraWidth                 = "width"
	ExtraHeight                = "height"
	ExtraSaveHistory           = "save_history"
	ExtraBeepOnScan            = "beep_on_scan"
	ExtraResultDisplayDuration = "result_display_duration_ms"
	ExtraCameraID              = "camera_id"
	ExtraOrientationLock       = "orientation_lock"
	ExtraTorchOn               = "torch_on"

	ExtraText          = "text"
	ExtraFormat        = "format"
	ExtraRawBytes      = "raw_bytes"
	ExtraOrientation   = "orientation"
	ExtraECLevel       = "error_correction_level"
	extraByteSegPrefix = "byte_segments_"
)

// ExitStatus is the activity-style session exit code.
type ExitStatus string

const (
	StatusOK        ExitStatus = "OK"
	StatusCancelled ExitStatus = "CANCELLED"
)

// ParseScanExtras converts request-intent string extras into a session
// configuration.
func ParseScanExtras(extras map[string]string) (session.Config, *session.Error) {
	cfg := session.Config{BeepOnScan: true}

	if v := extras[ExtraFormats]; v != "" {
		formats, err := barcode.ParseFormats(v)
		if err != nil {
			return session.Config{}, session.NewError(session.KindInvalidConfig, "%v", err)
		}
		cfg.Formats = formats
	}
	cfg.CharacterSet = extras[ExtraCharacterSet]
	cfg.Prompt = extras[ExtraPrompt]
	cfg.OrientationLock = camera.Orientation(extras[ExtraOrientationLock])

	width, err := extraInt(extras, ExtraWidth)
	if err != nil {
		return session.Config{}, session.NewError(session.KindInvalidConfig, "%v", err)
	}
	height, err := extraInt(extras, ExtraHeight)
	if err != nil {
		return session.Config{}, session.NewError(session.KindInvalidConfig, "%v", err)
	}
	cfg.FramingRect = camera.Size{Width: width, Height: height}

	ms, err := extraInt(extras, ExtraResultDisplayDuration)
	if err != nil {
		return session.Config{}, session.NewError(session.KindInvalidConfig, "%v", err)
	}
	cfg.ResultDisplayDuration = time.Duration(ms) * time.Millisecond

	cameraID, err := extraInt(extras, ExtraCameraID)
	if err != nil {
		return session.Config{}, session.NewError(session.KindInvalidConfig, "%v", err)
	}
	cfg.PreferFrontCamera = cameraID > 0

	cfg.SaveHistory = extras[ExtraSaveHistory] == "true"
	if v, ok := extras[ExtraBeepOnScan]; ok {
		cfg.BeepOnScan = v == "true"
	}
	cfg.TorchOn = extras[ExtraTorchOn] == "true"

	if verr := cfg.Validate(); verr != nil {
		return session.Config{}, verr
	}
	return cfg, nil
}

// ResultExtras flattens a scan result into response-intent string extras,
// including the numbered byte-segment sequence.
func ResultExtras(res *barcode.Result) map[string]string {
	extras := map[string]string{
		ExtraText:   res.Text,
		ExtraFormat: res.Format.String(),
	}
	if len(res.RawBytes) > 0 {
		extras[ExtraRawBytes] = EncodeBase64(res.RawBytes)
	}
	if res.Metadata.Orientation >= 0 {
		extras[ExtraOrientation] = strconv.Itoa(res.Metadata.Orientation)
	}
	if res.Metadata.ECLevel != "" {
		extras[ExtraECLevel] = res.Metadata.ECLevel
	}
	for i, seg := range res.Metadata.ByteSegments {
		extras[fmt.Sprintf("%s%d", extraByteSegPrefix, i)] = EncodeBase64(seg)
	}
	return extras
}

func extraInt(extras map[string]string, key string) (int, error) {
	v, ok := extras[key]
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("extra %s: %w", key, err)
	}
	return n, nil
}
