package session

import (
	"time"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
)

// Config is the immutable per-session scan configuration.
type Config struct {
	// Formats are the enabled symbologies; empty means all supported.
	Formats []barcode.Format

	// CharacterSet is the preferred text decoding (IANA name); empty means
	// automatic.
	CharacterSet string

	// PreferFrontCamera selects a non-default camera.
	PreferFrontCamera bool

	// ShowFlipButton and ShowTorchButton are UI affordances forwarded to the
	// host view layer.
	ShowFlipButton  bool
	ShowTorchButton bool

	// TorchOn is the initial flash state.
	TorchOn bool

	// SaveHistory persists a successful live scan to history.
	SaveHistory bool

	// BeepOnScan plays audible feedback on success.
	BeepOnScan bool

	// ResultDisplayDuration is how long a successful capture stays visible
	// before the outcome is delivered. Zero delivers immediately.
	ResultDisplayDuration time.Duration

	// Prompt is the UI hint string shown over the viewfinder.
	Prompt string

	// OrientationLock forces portrait or landscape; empty means none.
	OrientationLock camera.Orientation

	// FramingRect is the optional manual scan window (width, height) in
	// pixels.
	FramingRect camera.Size

	// BulkMode keeps the session scanning until the user backs out.
	BulkMode bool
}

// Validate rejects malformed option combinations. Unknown symbologies and
// character sets are caught earlier, at parse time; this re-checks what a
// directly-constructed config could get wrong.
func (c *Config) Validate() *Error {
	for _, f := range c.Formats {
		if f == barcode.FormatUnknown {
			return NewError(KindInvalidConfig, "unknown symbology in formats")
		}
	}
	if _, err := barcode.ValidateCharacterSet(c.CharacterSet); err != nil {
		return NewError(KindInvalidConfig, "%v", err)
	}
	switch c.OrientationLock {
	case "", camera.OrientationPortrait, camera.OrientationLandscape:
	default:
		return NewError(KindInvalidConfig, "invalid orientation lock %q", c.OrientationLock)
	}
	if c.ResultDisplayDuration < 0 {
		return NewError(KindInvalidConfig, "negative result display duration")
	}
	if c.FramingRect.Width < 0 || c.FramingRect.Height < 0 {
		return NewError(KindInvalidConfig, "negative framing rect")
	}
	return nil
}
