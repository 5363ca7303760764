// Package session owns the outer scan lifecycle: one session at a time, from
// config validation through camera teardown and exactly-once outcome
// delivery.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
	"github.com/MeKo-Tech/scanbridge/internal/capture"
)

// History receives successful live scans when save_history is enabled.
type History interface {
	Append(res *barcode.Result) error
}

// Preferences are the persisted user toggles consulted at session start.
type Preferences interface {
	camera.TorchPref
	AutoFocus() bool
	DisableContinuousFocus() bool
	BulkMode() bool
	SaveHistory() bool
	BeepOnScan() bool
}

// Beeper plays the audible scan feedback.
type Beeper interface {
	Beep()
}

// DeviceProvider hands out the camera device for a session. preferFront
// requests a non-default camera when the hardware has one.
type DeviceProvider func(preferFront bool) camera.Device

// Options wires the driver's collaborators.
type Options struct {
	Devices DeviceProvider
	History History
	Prefs   Preferences
	Beeper  Beeper
	Toast   func(msg string)
	Clock   capture.Clock

	// MinPreviewPixels and MaxPreviewPixels override the camera preview-size
	// pixel gate; zero keeps the camera package defaults.
	MinPreviewPixels int
	MaxPreviewPixels int

	// BulkScanDelay overrides the pause between bulk-mode scans; zero keeps
	// the capture package default.
	BulkScanDelay time.Duration

	// ExternallyInitiated marks sessions started by an outside caller, where
	// the back key cancels instead of restarting the preview.
	ExternallyInitiated bool
}

// Driver is the outer session lifecycle controller: it accepts one scan
// request at a time, drives the coordinator from construction through
// outcome delivery, and releases camera and worker on every exit path.
type Driver struct {
	opts  Options
	clock capture.Clock

	mu            sync.Mutex
	active        bool
	finished      bool
	cfg           Config
	callback      Callback
	ctrl          *camera.Controller
	coord         *capture.Coordinator
	worker        *capture.Worker
	resultShowing bool
	displayCancel chan struct{}
}

// NewDriver builds a driver. Options.Devices is required for live scanning.
func NewDriver(opts Options) *Driver {
	clock := opts.Clock
	if clock == nil {
		clock = capture.SystemClock()
	}
	return &Driver{opts: opts, clock: clock}
}

// Active reports whether a session is in flight.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Start validates the configuration and assembles the session. It returns
// after launch without blocking; the session begins scanning once the host
// reports the surface ready. The callback is invoked exactly once.
func (d *Driver) Start(cfg Config, callback Callback) *Error {
	if callback == nil {
		return NewError(KindInternal, "nil session callback")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	decoder, err := barcode.NewDecoder(barcode.Options{
		Formats:      cfg.Formats,
		CharacterSet: cfg.CharacterSet,
	})
	if err != nil {
		return NewError(KindInvalidConfig, "%v", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return NewError(KindBusy, "a scan session is already active")
	}

	var device camera.Device
	if d.opts.Devices != nil {
		device = d.opts.Devices(cfg.PreferFrontCamera)
	}

	var torchPref camera.TorchPref
	if d.opts.Prefs != nil {
		torchPref = d.opts.Prefs
	}
	ctrl := camera.NewController(device, torchPref)
	if d.opts.MinPreviewPixels > 0 && d.opts.MaxPreviewPixels > 0 {
		ctrl.SetPreviewPixelBounds(d.opts.MinPreviewPixels, d.opts.MaxPreviewPixels)
	}

	coord := capture.NewCoordinator(ctrl, d.clock, capture.Config{
		BulkMode:      cfg.BulkMode || (d.opts.Prefs != nil && d.opts.Prefs.BulkMode()),
		BulkScanDelay: d.opts.BulkScanDelay,
	}, capture.Hooks{
		OnScan:   func(res *barcode.Result) { d.handleScan(res) },
		OnCancel: func() { d.finish(Cancelled(), false) },
		Toast:    d.opts.Toast,
	})
	worker := capture.NewWorker(decoder, ctrl.FramingRect, coord.Mailbox())
	coord.AttachWorker(worker)

	d.active = true
	d.finished = false
	d.resultShowing = false
	d.displayCancel = nil
	d.cfg = cfg
	d.callback = callback
	d.ctrl = ctrl
	d.coord = coord
	d.worker = worker

	slog.Info("Scan session prepared",
		"formats", barcode.FormatNames(cfg.Formats),
		"bulk_mode", cfg.BulkMode,
		"save_history", cfg.SaveHistory)
	return nil
}

// OnSurfaceReady opens and configures the camera against the surface and
// starts the capture loop. Acquisition faults end the session through the
// regular teardown path.
func (d *Driver) OnSurfaceReady(surface camera.Surface) {
	d.mu.Lock()
	if !d.active || d.finished {
		d.mu.Unlock()
		return
	}
	ctrl, coord, worker, cfg := d.ctrl, d.coord, d.worker, d.cfg
	d.mu.Unlock()

	if err := ctrl.Open(surface); err != nil {
		d.finish(Failed(classifyCameraError(err)), false)
		return
	}

	torchOn := cfg.TorchOn
	autoFocus := true
	disableContinuous := false
	if d.opts.Prefs != nil {
		torchOn = torchOn || d.opts.Prefs.TorchOn()
		autoFocus = d.opts.Prefs.AutoFocus()
		disableContinuous = d.opts.Prefs.DisableContinuousFocus()
	}
	err := ctrl.Configure(camera.Config{
		TorchOn:                torchOn,
		OrientationLock:        cfg.OrientationLock,
		AutoFocus:              autoFocus,
		DisableContinuousFocus: disableContinuous,
		FramingRect:            cfg.FramingRect,
	})
	if err != nil {
		d.finish(Failed(classifyCameraError(err)), false)
		return
	}

	worker.Start()
	if err := coord.Start(); err != nil {
		d.finish(Failed(NewError(KindInternal, "%v", err)), false)
	}
}

// OnSurfaceLost forwards surface destruction to the coordinator, which ends
// the session as cancelled.
func (d *Driver) OnSurfaceLost() {
	d.mu.Lock()
	coord := d.coord
	active := d.active && !d.finished
	d.mu.Unlock()
	if !active {
		return
	}
	coord.SurfaceLost()
}

// OnUserBack handles the back key: externally initiated sessions cancel;
// otherwise a displayed result restarts the preview, and an idle preview
// cancels.
func (d *Driver) OnUserBack() {
	d.mu.Lock()
	if !d.active || d.finished {
		d.mu.Unlock()
		return
	}
	if !d.opts.ExternallyInitiated && d.resultShowing {
		d.resultShowing = false
		if d.displayCancel != nil {
			close(d.displayCancel)
			d.displayCancel = nil
		}
		ctrl, coord := d.ctrl, d.coord
		d.mu.Unlock()
		if err := ctrl.StartPreview(); err != nil {
			d.finish(Failed(classifyCameraError(err)), false)
			return
		}
		coord.RestartPreview(0)
		return
	}
	d.mu.Unlock()
	d.finish(Cancelled(), false)
}

// OnTorchKey toggles the torch while previewing.
func (d *Driver) OnTorchKey(on bool) {
	d.mu.Lock()
	coord := d.coord
	active := d.active && !d.finished
	d.mu.Unlock()
	if active {
		coord.TorchKey(on)
	}
}

// OnExternalResult short-circuits the session with a result supplied by the
// caller (e.g. picked from history). The coordinator is bypassed and history
// is not touched.
func (d *Driver) OnExternalResult(res *barcode.Result) {
	d.finish(Scanned(res), false)
}

func (d *Driver) handleScan(res *barcode.Result) {
	d.mu.Lock()
	if !d.active || d.finished {
		d.mu.Unlock()
		return
	}
	cfg := d.cfg
	d.mu.Unlock()

	bulk := cfg.BulkMode || (d.opts.Prefs != nil && d.opts.Prefs.BulkMode())

	// The persisted beep preference silences even sessions that ask for it.
	beep := cfg.BeepOnScan && (d.opts.Prefs == nil || d.opts.Prefs.BeepOnScan())
	if beep && d.opts.Beeper != nil {
		d.opts.Beeper.Beep()
	}

	if bulk {
		// Bulk sessions report each scan as it happens and keep running;
		// the final outcome is the eventual cancellation.
		d.appendHistory(cfg, res)
		return
	}

	if cfg.ResultDisplayDuration <= 0 {
		d.finish(Scanned(res), true)
		return
	}

	d.mu.Lock()
	d.resultShowing = true
	cancel := make(chan struct{})
	d.displayCancel = cancel
	d.mu.Unlock()

	after := d.clock.After(cfg.ResultDisplayDuration)
	go func() {
		select {
		case <-after:
			d.finish(Scanned(res), true)
		case <-cancel:
		}
	}()
}

// finish runs the single teardown path: quit and join the worker, close the
// camera, dispatch history, then deliver the outcome exactly once.
func (d *Driver) finish(outcome Outcome, fromLiveScan bool) {
	d.mu.Lock()
	if !d.active || d.finished {
		d.mu.Unlock()
		return
	}
	d.finished = true
	ctrl, coord, worker := d.ctrl, d.coord, d.worker
	cfg, callback := d.cfg, d.callback
	d.mu.Unlock()

	if coord != nil {
		coord.Quit()
	} else if worker != nil {
		worker.Quit()
		worker.Join()
	}
	if ctrl != nil {
		ctrl.Close()
	}

	if outcome.Result != nil && fromLiveScan {
		d.appendHistory(cfg, outcome.Result)
	}

	switch {
	case outcome.Result != nil:
		slog.Info("Session finished", "outcome", "scanned", "format", outcome.Result.Format)
	case outcome.Cancelled:
		slog.Info("Session finished", "outcome", "cancelled")
	default:
		slog.Warn("Session finished", "outcome", "error", "error", outcome.Err)
	}

	callback(outcome)

	d.mu.Lock()
	d.active = false
	d.mu.Unlock()
}

func (d *Driver) appendHistory(cfg Config, res *barcode.Result) {
	save := cfg.SaveHistory || (d.opts.Prefs != nil && d.opts.Prefs.SaveHistory())
	if !save || d.opts.History == nil {
		return
	}
	if err := d.opts.History.Append(res); err != nil {
		slog.Warn("History append failed", "error", err)
	}
}

func classifyCameraError(err error) *Error {
	switch {
	case errors.Is(err, camera.ErrSurfaceInvalid):
		return NewError(KindSurfaceInvalid, "%v", err)
	case errors.Is(err, camera.ErrUnavailable):
		return NewError(KindCameraUnavailable, "%v", err)
	default:
		return NewError(KindInternal, "%v", err)
	}
}
