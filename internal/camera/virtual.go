package camera

import (
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// VirtualDevice is a file- or memory-fed Device implementation. It stands in
// for a hardware driver in tests and in the headless CLI, delivering queued
// images as luminance frames on its own goroutine the way a driver callback
// thread would.
type VirtualDevice struct {
	mu         sync.Mutex
	sizes      []Size
	def        Size
	focusModes []FocusMode
	flashModes []FlashMode
	params     Parameters

	opened     bool
	previewing bool
	openErr    error

	frames []image.Image
	next   int
	loop   bool
}

// NewVirtualDevice returns a device advertising a typical capability set.
func NewVirtualDevice() *VirtualDevice {
	return &VirtualDevice{
		sizes: []Size{
			{1920, 1080}, {1280, 720}, {640, 480}, {320, 240},
		},
		def:        Size{640, 480},
		focusModes: []FocusMode{FocusContinuousPicture, FocusAuto, FocusMacro},
		flashModes: []FlashMode{FlashTorch, FlashOff},
	}
}

// SetSupportedPreviewSizes overrides the advertised preview sizes.
func (d *VirtualDevice) SetSupportedPreviewSizes(sizes []Size, def Size) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sizes, d.def = sizes, def
}

// SetSupportedFocusModes overrides the advertised focus modes.
func (d *VirtualDevice) SetSupportedFocusModes(modes []FocusMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.focusModes = modes
}

// SetSupportedFlashModes overrides the advertised flash modes.
func (d *VirtualDevice) SetSupportedFlashModes(modes []FlashMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flashModes = modes
}

// FailOpen makes the next Open return err, simulating a missing device.
func (d *VirtualDevice) FailOpen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErr = err
}

// QueueImage appends an image to the frame queue.
func (d *VirtualDevice) QueueImage(img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, img)
}

// SetLoop makes the frame queue wrap around instead of running dry.
func (d *VirtualDevice) SetLoop(loop bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loop = loop
}

// Opened reports whether the device is currently acquired.
func (d *VirtualDevice) Opened() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Previewing reports whether the preview is running.
func (d *VirtualDevice) Previewing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.previewing
}

// Params returns the last parameters pushed by SetParameters.
func (d *VirtualDevice) Params() Parameters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params
}

func (d *VirtualDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = true
	return nil
}

func (d *VirtualDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = false
	d.previewing = false
	return nil
}

func (d *VirtualDevice) SupportedPreviewSizes() []Size { return d.sizes }
func (d *VirtualDevice) DefaultPreviewSize() Size      { return d.def }
func (d *VirtualDevice) SupportedFocusModes() []FocusMode {
	return d.focusModes
}
func (d *VirtualDevice) SupportedFlashModes() []FlashMode {
	return d.flashModes
}

func (d *VirtualDevice) SetParameters(p Parameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = p
	return nil
}

func (d *VirtualDevice) StartPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previewing = true
	return nil
}

func (d *VirtualDevice) StopPreview() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.previewing = false
	return nil
}

// RequestFrame delivers the next queued image as a frame, scaled to the
// negotiated preview size. With an empty queue no frame is ever delivered,
// which models a stalled sensor.
func (d *VirtualDevice) RequestFrame(fn func(Frame)) {
	d.mu.Lock()
	if !d.previewing || d.next >= len(d.frames) {
		d.mu.Unlock()
		return
	}
	img := d.frames[d.next]
	d.next++
	if d.loop && d.next == len(d.frames) {
		d.next = 0
	}
	size := d.params.PreviewSize
	d.mu.Unlock()

	go func() {
		b := img.Bounds()
		if !size.IsZero() && (b.Dx() > size.Width || b.Dy() > size.Height) {
			img = imaging.Fit(img, size.Width, size.Height, imaging.Lanczos)
		}
		fn(FrameFromImage(img))
	}()
}

// RequestAutoFocus completes the focus cycle after a short settling delay,
// the way a real driver would.
func (d *VirtualDevice) RequestAutoFocus(fn func()) {
	go func() {
		time.Sleep(10 * time.Millisecond)
		fn()
	}()
}
