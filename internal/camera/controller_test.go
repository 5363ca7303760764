package camera

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTorchPref struct {
	mu   sync.Mutex
	on   bool
	sets int
}

func (p *fakeTorchPref) TorchOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

func (p *fakeTorchPref) SetTorchOn(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.on = on
	p.sets++
}

func TestOpenWithoutDevice(t *testing.T) {
	c := NewController(nil, nil)
	err := c.Open(Surface{Width: 1080, Height: 1920})
	assert.ErrorIs(t, err, ErrUnavailable)
	c.Close() // must be safe after a failed open
}

func TestOpenInvalidSurface(t *testing.T) {
	c := NewController(NewVirtualDevice(), nil)
	err := c.Open(Surface{})
	assert.ErrorIs(t, err, ErrSurfaceInvalid)
	c.Close()
}

func TestOpenDeviceFailure(t *testing.T) {
	dev := NewVirtualDevice()
	dev.FailOpen(errors.New("driver busy"))
	c := NewController(dev, nil)
	err := c.Open(Surface{Width: 1080, Height: 1920})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenNegotiatesPreviewSize(t *testing.T) {
	dev := NewVirtualDevice()
	c := NewController(dev, nil)
	require.NoError(t, c.Open(Surface{Width: 1080, Height: 1920}))
	assert.Equal(t, Size{1280, 720}, c.PreviewSize())
	c.Close()
	assert.False(t, dev.Opened())
}

func TestConfigureOrientationAndFocus(t *testing.T) {
	tests := []struct {
		name     string
		surface  Surface
		lock     Orientation
		wantRot  int
		supports []FocusMode
		safeMode bool
		want     FocusMode
	}{
		{
			name:     "portrait rotation 0",
			surface:  Surface{Width: 1080, Height: 1920, Rotation: 0},
			wantRot:  90,
			supports: []FocusMode{FocusContinuousPicture, FocusAuto},
			want:     FocusContinuousPicture,
		},
		{
			name:     "portrait rotation 180",
			surface:  Surface{Width: 1080, Height: 1920, Rotation: 180},
			wantRot:  270,
			supports: []FocusMode{FocusContinuousVideo, FocusAuto},
			want:     FocusContinuousVideo,
		},
		{
			name:     "landscape rotation 270",
			surface:  Surface{Width: 1920, Height: 1080, Rotation: 270},
			wantRot:  180,
			supports: []FocusMode{FocusAuto},
			want:     FocusAuto,
		},
		{
			name:     "landscape rotation 0",
			surface:  Surface{Width: 1920, Height: 1080, Rotation: 0},
			wantRot:  0,
			supports: []FocusMode{FocusAuto},
			want:     FocusAuto,
		},
		{
			name:     "portrait lock on landscape surface",
			surface:  Surface{Width: 1920, Height: 1080, Rotation: 90},
			lock:     OrientationPortrait,
			wantRot:  90,
			supports: []FocusMode{FocusAuto},
			want:     FocusAuto,
		},
		{
			name:     "safe mode forces plain auto",
			surface:  Surface{Width: 1080, Height: 1920, Rotation: 0},
			wantRot:  90,
			supports: []FocusMode{FocusContinuousPicture, FocusAuto},
			safeMode: true,
			want:     FocusAuto,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := NewVirtualDevice()
			dev.SetSupportedFocusModes(tt.supports)
			c := NewController(dev, nil)
			require.NoError(t, c.Open(tt.surface))
			require.NoError(t, c.Configure(Config{
				AutoFocus:       true,
				SafeMode:        tt.safeMode,
				OrientationLock: tt.lock,
			}))
			assert.Equal(t, tt.wantRot, dev.Params().DisplayOrientation)
			assert.Equal(t, tt.want, dev.Params().FocusMode)
		})
	}
}

func TestConfigureMacroFallback(t *testing.T) {
	dev := NewVirtualDevice()
	dev.SetSupportedFocusModes([]FocusMode{FocusMacro, FocusEDOF})
	c := NewController(dev, nil)
	require.NoError(t, c.Open(Surface{Width: 1080, Height: 1920}))
	require.NoError(t, c.Configure(Config{AutoFocus: true}))
	assert.Equal(t, FocusMacro, dev.Params().FocusMode)
}

func TestRequestFrameIdempotentWhilePending(t *testing.T) {
	dev := NewVirtualDevice()
	dev.QueueImage(blankTestImage(640, 480))
	dev.QueueImage(blankTestImage(640, 480))
	c := NewController(dev, nil)
	require.NoError(t, c.Open(Surface{Width: 1080, Height: 1920}))
	require.NoError(t, c.StartPreview())

	var mu sync.Mutex
	delivered := 0
	release := make(chan struct{})
	c.RequestFrame(func(Frame) {
		mu.Lock()
		delivered++
		mu.Unlock()
		<-release
	})
	// Second request while the first is outstanding must be a no-op.
	c.RequestFrame(func(Frame) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})
	time.Sleep(50 * time.Millisecond)
	close(release)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, delivered)
}

func TestRequestFrameRequiresPreview(t *testing.T) {
	dev := NewVirtualDevice()
	dev.QueueImage(blankTestImage(640, 480))
	c := NewController(dev, nil)
	require.NoError(t, c.Open(Surface{Width: 1080, Height: 1920}))

	called := make(chan struct{}, 1)
	c.RequestFrame(func(Frame) { called <- struct{}{} })
	select {
	case <-called:
		t.Fatal("frame delivered without a running preview")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSetTorchPersistsPreference(t *testing.T) {
	dev := NewVirtualDevice()
	pref := &fakeTorchPref{}
	c := NewController(dev, pref)
	require.NoError(t, c.Open(Surface{Width: 1080, Height: 1920}))

	require.NoError(t, c.SetTorch(true))
	assert.Equal(t, FlashTorch, dev.Params().FlashMode)
	assert.True(t, pref.TorchOn())
	assert.True(t, c.TorchOn())

	require.NoError(t, c.SetTorch(false))
	assert.Equal(t, FlashOff, dev.Params().FlashMode)
	assert.False(t, pref.TorchOn())
	assert.Equal(t, 2, pref.sets)

	// Unchanged setting is not re-persisted.
	require.NoError(t, c.SetTorch(false))
	assert.Equal(t, 2, pref.sets)
}

func TestFramingRect(t *testing.T) {
	c := NewController(NewVirtualDevice(), nil)
	assert.True(t, c.FramingRect().IsZero())
	c.SetFramingRect(400, 300)
	assert.Equal(t, Size{400, 300}, c.FramingRect())
}

func TestCloseIsReentrant(t *testing.T) {
	dev := NewVirtualDevice()
	c := NewController(dev, nil)
	require.NoError(t, c.Open(Surface{Width: 1080, Height: 1920}))
	require.NoError(t, c.StartPreview())
	c.Close()
	c.Close()
	assert.False(t, dev.Opened())
	assert.False(t, dev.Previewing())
}
