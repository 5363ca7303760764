package camera

import (
	"errors"
	"image"
	"image/draw"
)

// Sentinel errors for device acquisition.
var (
	// ErrUnavailable reports that no camera device could be opened.
	ErrUnavailable = errors.New("camera unavailable")

	// ErrSurfaceInvalid reports that the rendering surface is missing or
	// unusable.
	ErrSurfaceInvalid = errors.New("rendering surface invalid")
)

// Size is a preview resolution in pixels.
type Size struct {
	Width  int
	Height int
}

// Pixels returns the pixel count of the size.
func (s Size) Pixels() int { return s.Width * s.Height }

// IsZero reports whether the size is unset.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// FocusMode names a driver focus mode.
type FocusMode string

const (
	FocusContinuousPicture FocusMode = "continuous-picture"
	FocusContinuousVideo   FocusMode = "continuous-video"
	FocusAuto              FocusMode = "auto"
	FocusMacro             FocusMode = "macro"
	FocusEDOF              FocusMode = "edof"
)

// FlashMode names a driver flash mode.
type FlashMode string

const (
	FlashTorch FlashMode = "torch"
	FlashOn    FlashMode = "on"
	FlashOff   FlashMode = "off"
)

// Orientation is the coarse screen orientation.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Surface describes the rendering surface the preview is drawn on.
type Surface struct {
	Width  int
	Height int

	// Rotation is the physical display rotation in degrees (0, 90, 180, 270).
	Rotation int
}

// Valid reports whether the surface can host a preview.
func (s Surface) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Orientation derives the coarse orientation from the surface dimensions.
func (s Surface) Orientation() Orientation {
	if s.Height >= s.Width {
		return OrientationPortrait
	}
	return OrientationLandscape
}

// Frame is a borrowed view of one preview frame's luminance plane. Its
// lifetime is bounded by the camera callback that produced it; consumers must
// not retain the buffer past a single decode attempt.
type Frame struct {
	Luma   []byte
	Width  int
	Height int

	// Rotation is the frame rotation hint in degrees relative to the sensor.
	Rotation int
}

// Gray wraps the luminance plane as an image without copying.
func (f Frame) Gray() *image.Gray {
	return &image.Gray{
		Pix:    f.Luma,
		Stride: f.Width,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// Crop returns a view of the frame restricted to r, clamped to the frame
// bounds. The pixel data is shared, not copied.
func (f Frame) Crop(r image.Rectangle) *image.Gray {
	g := f.Gray()
	rb := r.Intersect(g.Rect)
	if rb.Empty() {
		return g
	}
	return g.SubImage(rb).(*image.Gray)
}

// FrameFromImage converts an arbitrary image into a luminance frame. Used by
// file-fed devices; real drivers deliver the luminance plane directly.
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return Frame{Luma: gray.Pix, Width: b.Dx(), Height: b.Dy()}
}

// Parameters is the negotiated driver configuration applied to a device.
type Parameters struct {
	PreviewSize        Size
	FocusMode          FocusMode
	FlashMode          FlashMode
	DisplayOrientation int
}

// Device abstracts the camera driver. Implementations deliver frame and
// autofocus callbacks on their own thread; callers must not assume the
// calling goroutine.
type Device interface {
	Open() error
	Close() error

	SupportedPreviewSizes() []Size
	DefaultPreviewSize() Size
	SupportedFocusModes() []FocusMode
	SupportedFlashModes() []FlashMode

	SetParameters(p Parameters) error
	StartPreview() error
	StopPreview() error

	// RequestFrame asks for exactly one next preview frame.
	RequestFrame(fn func(Frame))

	// RequestAutoFocus runs a single autofocus cycle and reports completion.
	RequestAutoFocus(fn func())
}
