package capture

import (
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
)

func qrFrame(t *testing.T, text string, canvasW, canvasH int) camera.Frame {
	t.Helper()
	qr, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	require.NoError(t, err)
	canvas := imaging.New(canvasW, canvasH, color.White)
	return camera.FrameFromImage(imaging.PasteCenter(canvas, qr))
}

func blankFrame(w, h int) camera.Frame {
	luma := make([]byte, w*h)
	for i := range luma {
		luma[i] = 255
	}
	return camera.Frame{Luma: luma, Width: w, Height: h}
}

func newTestWorker(t *testing.T, framing func() camera.Size) (*Worker, chan event) {
	t.Helper()
	dec, err := barcode.NewDecoder(barcode.Options{})
	require.NoError(t, err)
	events := make(chan event, 16)
	w := NewWorker(dec, framing, events)
	return w, events
}

func recvEvent(t *testing.T, events chan event) event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for worker reply")
		return event{}
	}
}

func TestWorkerDecodeSuccess(t *testing.T) {
	w, events := newTestWorker(t, nil)
	w.Start()
	defer func() { w.Quit(); w.Join() }()

	w.Decode(qrFrame(t, "hello", 400, 400))
	ev := recvEvent(t, events)
	assert.Equal(t, evDecodeOK, ev.kind)
	require.NotNil(t, ev.result)
	assert.Equal(t, "hello", ev.result.Text)
	assert.Equal(t, barcode.FormatQR, ev.result.Format)
}

func TestWorkerDecodeFail(t *testing.T) {
	w, events := newTestWorker(t, nil)
	w.Start()
	defer func() { w.Quit(); w.Join() }()

	w.Decode(blankFrame(320, 240))
	ev := recvEvent(t, events)
	assert.Equal(t, evDecodeFail, ev.kind)
	assert.Nil(t, ev.result)
}

func TestWorkerRepliesInOrder(t *testing.T) {
	w, events := newTestWorker(t, nil)
	w.Start()
	defer func() { w.Quit(); w.Join() }()

	w.Decode(blankFrame(320, 240))
	w.Decode(qrFrame(t, "second", 400, 400))
	w.Decode(blankFrame(320, 240))

	assert.Equal(t, evDecodeFail, recvEvent(t, events).kind)
	ok := recvEvent(t, events)
	assert.Equal(t, evDecodeOK, ok.kind)
	assert.Equal(t, "second", ok.result.Text)
	assert.Equal(t, evDecodeFail, recvEvent(t, events).kind)
}

func TestWorkerQuitDropsQueuedRequests(t *testing.T) {
	w, events := newTestWorker(t, nil)

	// Quit is enqueued ahead of the decode; the decode must get no reply.
	w.Quit()
	w.Decode(qrFrame(t, "late", 400, 400))
	w.Start()
	w.Join()

	select {
	case ev := <-events:
		t.Fatalf("unexpected reply after quit: %v", ev.kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWorkerJoinWithoutStart(t *testing.T) {
	w, _ := newTestWorker(t, nil)
	done := make(chan struct{})
	go func() {
		w.Join()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join blocked for a worker that never started")
	}
}

func TestWorkerFramingRectCrop(t *testing.T) {
	framing := func() camera.Size { return camera.Size{Width: 260, Height: 260} }
	w, events := newTestWorker(t, framing)
	w.Start()
	defer func() { w.Quit(); w.Join() }()

	// The code sits in the center of a much larger frame; the crop must
	// still contain it.
	w.Decode(qrFrame(t, "windowed", 800, 600))
	ev := recvEvent(t, events)
	assert.Equal(t, evDecodeOK, ev.kind)
	assert.Equal(t, "windowed", ev.result.Text)
}

func TestCenteredRect(t *testing.T) {
	f := camera.Frame{Width: 800, Height: 600}
	r := centeredRect(f, camera.Size{Width: 400, Height: 200})
	assert.Equal(t, 200, r.Min.X)
	assert.Equal(t, 200, r.Min.Y)
	assert.Equal(t, 600, r.Max.X)
	assert.Equal(t, 400, r.Max.Y)

	// Oversized windows clamp to the frame.
	r = centeredRect(f, camera.Size{Width: 2000, Height: 2000})
	assert.Equal(t, 800, r.Dx())
	assert.Equal(t, 600, r.Dy())
}
