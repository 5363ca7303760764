package capture

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
)

// BulkModeScanDelay is how long a bulk-mode session pauses after a scan
// before resuming the preview loop.
const BulkModeScanDelay = 1000 * time.Millisecond

// State is the coordinator's explicit capture state.
type State int32

const (
	// StatePreview means frames are being requested and decoded.
	StatePreview State = iota

	// StateSuccess means a decode succeeded and the loop is paused until an
	// explicit restart.
	StateSuccess

	// StateDone is terminal; no further decode events are delivered.
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePreview:
		return "PREVIEW"
	case StateSuccess:
		return "SUCCESS"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

type eventKind int

const (
	evDecodeOK eventKind = iota
	evDecodeFail
	evAutoFocusDone
	evRestartPreview
	evSurfaceLost
	evTorch
	evQuit
)

type event struct {
	kind   eventKind
	result *barcode.Result
	delay  time.Duration
	torch  bool
}

// Config controls coordinator behaviour for one session.
type Config struct {
	// BulkMode keeps the session alive after a successful scan; each scan is
	// reported upward and the preview resumes after BulkScanDelay.
	BulkMode bool

	// BulkScanDelay overrides the pause between bulk scans; zero means
	// BulkModeScanDelay.
	BulkScanDelay time.Duration
}

// Hooks are the coordinator's upward-facing callbacks. They are invoked from
// the coordinator goroutine and must not call back into Quit synchronously.
type Hooks struct {
	// OnScan is called for every successful live decode.
	OnScan func(res *barcode.Result)

	// OnCancel is called when the session ends without a scan, e.g. on
	// surface loss.
	OnCancel func()

	// Toast surfaces a short user-visible notice (bulk mode feedback).
	Toast func(msg string)
}

// Coordinator is the capture state machine. It wires the camera controller
// and the decode worker together and produces session events upward. All
// internal transitions happen on a single run-loop goroutine; cross-thread
// communication is message passing through the mailbox.
type Coordinator struct {
	cam    *camera.Controller
	worker *Worker
	clock  Clock
	cfg    Config
	hooks  Hooks

	events  chan event
	state   atomic.Int32
	started atomic.Bool

	quitOnce sync.Once
	loopDone chan struct{}
}

// NewCoordinator assembles a coordinator and its mailbox. The worker posting
// into the same mailbox must be created via Mailbox before Start.
func NewCoordinator(cam *camera.Controller, clock Clock, cfg Config, hooks Hooks) *Coordinator {
	if clock == nil {
		clock = SystemClock()
	}
	if cfg.BulkScanDelay <= 0 {
		cfg.BulkScanDelay = BulkModeScanDelay
	}
	c := &Coordinator{
		cam:      cam,
		clock:    clock,
		cfg:      cfg,
		hooks:    hooks,
		events:   make(chan event, 64),
		loopDone: make(chan struct{}),
	}
	c.state.Store(int32(StateSuccess))
	return c
}

// Mailbox exposes the event channel for the worker's replies.
func (c *Coordinator) Mailbox() chan<- event { return c.events }

// AttachWorker binds the decode worker the coordinator feeds frames to.
func (c *Coordinator) AttachWorker(w *Worker) { c.worker = w }

// State returns the current capture state.
func (c *Coordinator) State() State { return State(c.state.Load()) }

// Start begins the preview/decode loop. The worker must already be attached
// and started.
func (c *Coordinator) Start() error {
	if err := c.cam.StartPreview(); err != nil {
		return fmt.Errorf("starting preview: %w", err)
	}
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	go c.run()
	c.post(event{kind: evRestartPreview})
	return nil
}

// RestartPreview schedules a preview resume after delay. A zero delay resumes
// immediately.
func (c *Coordinator) RestartPreview(delay time.Duration) {
	c.post(event{kind: evRestartPreview, delay: delay})
}

// SurfaceLost notifies the coordinator that the rendering surface is gone.
// Losing the surface must end the session, so the send blocks instead of
// competing with droppable events for mailbox space.
func (c *Coordinator) SurfaceLost() {
	select {
	case c.events <- event{kind: evSurfaceLost}:
	case <-c.loopDone:
	}
}

// TorchKey toggles the torch while previewing without changing state.
func (c *Coordinator) TorchKey(on bool) {
	c.post(event{kind: evTorch, torch: on})
}

// Quit shuts the state machine down: the worker receives a quit message and
// is joined, then any residual decode events are purged so a late decode can
// never surface after cancellation. Quit is idempotent and safe from any
// state.
func (c *Coordinator) Quit() {
	c.quitOnce.Do(func() {
		if c.started.Load() {
			// Blocking send: the quit must not be droppable even under a
			// full mailbox.
			c.events <- event{kind: evQuit}
			<-c.loopDone
		} else {
			c.state.Store(int32(StateDone))
			c.cam.StopPreview()
			if c.worker != nil {
				c.worker.Quit()
				c.worker.Join()
			}
			close(c.loopDone)
		}
		c.drain()
	})
}

func (c *Coordinator) run() {
	defer close(c.loopDone)
	for ev := range c.events {
		switch ev.kind {
		case evQuit:
			c.state.Store(int32(StateDone))
			c.cam.StopPreview()
			if c.worker != nil {
				c.worker.Quit()
				c.worker.Join()
			}
			return

		case evRestartPreview:
			if ev.delay > 0 {
				c.schedule(ev.delay)
				continue
			}
			if c.State() == StateSuccess {
				c.state.Store(int32(StatePreview))
				c.requestFrameAndFocus()
			}

		case evDecodeFail:
			if c.State() == StatePreview {
				c.requestFrame()
			}

		case evDecodeOK:
			if c.State() != StatePreview {
				// At most one scan per session; late results are discarded
				// until an explicit restart.
				continue
			}
			c.state.Store(int32(StateSuccess))
			c.handleDecoded(ev.result)

		case evAutoFocusDone:
			if c.State() == StatePreview {
				c.requestFocus()
			}

		case evSurfaceLost:
			if c.State() == StateDone {
				continue
			}
			c.state.Store(int32(StateDone))
			c.cam.StopPreview()
			slog.Info("Rendering surface lost, cancelling session")
			if c.hooks.OnCancel != nil {
				go c.hooks.OnCancel()
			}

		case evTorch:
			if c.State() == StatePreview {
				if err := c.cam.SetTorch(ev.torch); err != nil {
					slog.Warn("Torch toggle failed", "error", err)
				}
			}
		}
	}
}

func (c *Coordinator) handleDecoded(res *barcode.Result) {
	if c.cfg.BulkMode {
		if c.hooks.Toast != nil {
			c.hooks.Toast(fmt.Sprintf("Bulk mode: scanned %s", res.Text))
		}
		if c.hooks.OnScan != nil {
			go c.hooks.OnScan(res)
		}
		c.schedule(c.cfg.BulkScanDelay)
		return
	}
	c.cam.StopPreview()
	if c.hooks.OnScan != nil {
		go c.hooks.OnScan(res)
	}
}

// schedule posts a zero-delay restart once the clock fires; the loop itself
// never sleeps.
func (c *Coordinator) schedule(delay time.Duration) {
	after := c.clock.After(delay)
	go func() {
		select {
		case <-after:
			c.post(event{kind: evRestartPreview})
		case <-c.loopDone:
		}
	}()
}

func (c *Coordinator) requestFrameAndFocus() {
	c.requestFrame()
	c.requestFocus()
}

func (c *Coordinator) requestFrame() {
	c.cam.RequestFrame(func(f camera.Frame) {
		if c.worker != nil {
			c.worker.Decode(f)
		}
	})
}

func (c *Coordinator) requestFocus() {
	c.cam.RequestAutoFocus(func() {
		c.post(event{kind: evAutoFocusDone})
	})
}

func (c *Coordinator) post(ev event) {
	select {
	case c.events <- ev:
	default:
	}
}

func (c *Coordinator) drain() {
	for {
		select {
		case <-c.events:
		default:
			return
		}
	}
}
