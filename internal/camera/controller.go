package camera

import (
	"fmt"
	"log/slog"
	"sync"
)

// TorchPref persists the process-wide torch preference. Writes go through the
// controller so the stored value stays consistent with the hardware state.
type TorchPref interface {
	TorchOn() bool
	SetTorchOn(on bool)
}

// Config is the per-session camera configuration applied by Configure.
type Config struct {
	TorchOn bool

	// OrientationLock forces the orientation input of the display-rotation
	// computation; empty means the surface's reported orientation is used.
	OrientationLock Orientation

	// SafeMode restricts parameter negotiation to plain auto focus.
	SafeMode bool

	// AutoFocus enables the focus mode negotiation at all.
	AutoFocus bool

	// DisableContinuousFocus falls back to single-shot auto focus.
	DisableContinuousFocus bool

	// FramingRect is the optional manual scan window in pixels.
	FramingRect Size
}

// Controller encapsulates all interaction with a camera device. It owns the
// open/close lifetime and enforces the single-outstanding-frame invariant.
type Controller struct {
	mu     sync.Mutex
	device Device
	pref   TorchPref

	minPixels int
	maxPixels int

	opened           bool
	previewing       bool
	frameOutstanding bool

	surface Surface
	params  Parameters
	framing Size
}

// NewController wraps a device. pref may be nil when torch persistence is not
// wanted (headless decode paths).
func NewController(device Device, pref TorchPref) *Controller {
	return &Controller{
		device:    device,
		pref:      pref,
		minPixels: MinPreviewPixels,
		maxPixels: MaxPreviewPixels,
	}
}

// SetPreviewPixelBounds overrides the preview-size pixel gate.
func (c *Controller) SetPreviewPixelBounds(minPixels, maxPixels int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minPixels, c.maxPixels = minPixels, maxPixels
}

// Open acquires the device and negotiates the preview size against the
// surface. It fails with ErrUnavailable when no device can be acquired and
// ErrSurfaceInvalid when the surface cannot host a preview.
func (c *Controller) Open(surface Surface) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return ErrUnavailable
	}
	if !surface.Valid() {
		return ErrSurfaceInvalid
	}
	if c.opened {
		return nil
	}
	if err := c.device.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	c.surface = surface
	c.params.PreviewSize = findBestPreviewSize(
		c.device.SupportedPreviewSizes(),
		c.device.DefaultPreviewSize(),
		Size{Width: surface.Width, Height: surface.Height},
		c.minPixels, c.maxPixels,
	)
	c.opened = true
	slog.Info("Camera opened",
		"preview", c.params.PreviewSize,
		"surface", Size{Width: surface.Width, Height: surface.Height})
	return nil
}

// Configure applies display orientation, focus mode and flash mode for the
// session and pushes the negotiated parameters to the device.
func (c *Controller) Configure(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return ErrUnavailable
	}

	orientation := c.surface.Orientation()
	if cfg.OrientationLock != "" {
		orientation = cfg.OrientationLock
	}
	c.params.DisplayOrientation = displayOrientation(orientation, c.surface.Rotation)

	if mode, ok := selectFocusMode(cfg, c.device.SupportedFocusModes()); ok {
		c.params.FocusMode = mode
	}
	c.params.FlashMode = c.flashModeLocked(cfg.TorchOn)

	if !cfg.FramingRect.IsZero() {
		c.framing = cfg.FramingRect
	}

	slog.Debug("Camera configured",
		"display_orientation", c.params.DisplayOrientation,
		"focus_mode", c.params.FocusMode,
		"flash_mode", c.params.FlashMode)
	return c.device.SetParameters(c.params)
}

// StartPreview starts frame delivery.
func (c *Controller) StartPreview() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return ErrUnavailable
	}
	if c.previewing {
		return nil
	}
	if err := c.device.StartPreview(); err != nil {
		return err
	}
	c.previewing = true
	return nil
}

// StopPreview stops frame delivery and forgets any outstanding frame request.
func (c *Controller) StopPreview() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.previewing {
		return
	}
	_ = c.device.StopPreview()
	c.previewing = false
	c.frameOutstanding = false
}

// RequestFrame asks the device to deliver exactly one next preview frame.
// A second request while one is pending is a no-op.
func (c *Controller) RequestFrame(fn func(Frame)) {
	c.mu.Lock()
	if !c.previewing || c.frameOutstanding {
		c.mu.Unlock()
		return
	}
	c.frameOutstanding = true
	c.mu.Unlock()

	c.device.RequestFrame(func(f Frame) {
		c.mu.Lock()
		c.frameOutstanding = false
		live := c.previewing
		c.mu.Unlock()
		if live {
			fn(f)
		}
	})
}

// RequestAutoFocus requests a single autofocus cycle.
func (c *Controller) RequestAutoFocus(fn func()) {
	c.mu.Lock()
	if !c.previewing {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.device.RequestAutoFocus(fn)
}

// SetTorch toggles the flash mode live and persists the new preference.
func (c *Controller) SetTorch(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		return ErrUnavailable
	}
	c.params.FlashMode = c.flashModeLocked(on)
	if err := c.device.SetParameters(c.params); err != nil {
		return err
	}
	if c.pref != nil && c.pref.TorchOn() != on {
		c.pref.SetTorchOn(on)
	}
	return nil
}

// TorchOn reports whether the flash is currently in a lit mode.
func (c *Controller) TorchOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.FlashMode == FlashTorch || c.params.FlashMode == FlashOn
}

// SetFramingRect establishes the scan window used for luminance cropping.
func (c *Controller) SetFramingRect(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.framing = Size{Width: width, Height: height}
}

// FramingRect returns the configured scan window; zero means full frame.
func (c *Controller) FramingRect() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framing
}

// PreviewSize returns the negotiated preview resolution.
func (c *Controller) PreviewSize() Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.PreviewSize
}

// Close stops the preview and releases the device. Safe to call from any
// state, including after a failed Open.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.previewing {
		_ = c.device.StopPreview()
		c.previewing = false
	}
	c.frameOutstanding = false
	if c.opened {
		_ = c.device.Close()
		c.opened = false
		slog.Info("Camera closed")
	}
}

func (c *Controller) flashModeLocked(on bool) FlashMode {
	supported := c.device.SupportedFlashModes()
	if on {
		if mode, ok := findSettableValue(supported, FlashTorch, FlashOn); ok {
			return mode
		}
	} else if mode, ok := findSettableValue(supported, FlashOff); ok {
		return mode
	}
	return FlashOff
}

// displayOrientation computes the rotation the preview must be drawn with so
// that it stays upright relative to the screen.
func displayOrientation(orientation Orientation, rotation int) int {
	if orientation == OrientationPortrait {
		if rotation == 0 || rotation == 90 {
			return 90
		}
		return 270
	}
	if rotation == 180 || rotation == 270 {
		return 180
	}
	return 0
}

// selectFocusMode walks the preference chain against the device capabilities.
func selectFocusMode(cfg Config, supported []FocusMode) (FocusMode, bool) {
	var mode FocusMode
	var ok bool
	if cfg.AutoFocus {
		if cfg.SafeMode || cfg.DisableContinuousFocus {
			mode, ok = findSettableValue(supported, FocusAuto)
		} else {
			mode, ok = findSettableValue(supported,
				FocusContinuousPicture, FocusContinuousVideo, FocusAuto)
		}
	}
	if !ok && !cfg.SafeMode {
		mode, ok = findSettableValue(supported, FocusMacro, FocusEDOF)
	}
	return mode, ok
}
