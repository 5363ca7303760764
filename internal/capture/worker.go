package capture

import (
	"errors"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
)

type workerMsgKind int

const (
	msgDecode workerMsgKind = iota
	msgQuit
)

type workerMsg struct {
	kind  workerMsgKind
	frame camera.Frame
}

// Worker owns a decoder instance on a private goroutine and serves decode
// requests in FIFO order. Every decode request produces exactly one reply
// into the coordinator mailbox unless a quit intervened first.
type Worker struct {
	decoder *barcode.Decoder
	framing func() camera.Size
	events  chan<- event

	requests chan workerMsg
	done     chan struct{}
	started  atomic.Bool
}

// NewWorker builds a worker posting replies into events. framing supplies the
// current scan window; nil or zero means full frame.
func NewWorker(decoder *barcode.Decoder, framing func() camera.Size, events chan<- event) *Worker {
	w := &Worker{
		decoder:  decoder,
		framing:  framing,
		events:   events,
		requests: make(chan workerMsg, 4),
		done:     make(chan struct{}),
	}
	return w
}

// Start launches the worker loop.
func (w *Worker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run()
}

// Decode submits one frame for decoding. The frame is consumed in place; no
// copy is retained past the reply.
func (w *Worker) Decode(frame camera.Frame) {
	select {
	case w.requests <- workerMsg{kind: msgDecode, frame: frame}:
	case <-w.done:
	}
}

// Quit asks the worker to exit. Requests still queued behind the quit get no
// reply. Quit does not wait; use Join.
func (w *Worker) Quit() {
	select {
	case w.requests <- workerMsg{kind: msgQuit}:
	case <-w.done:
	}
}

// Join blocks until the worker loop has exited. Joining a worker that was
// never started returns immediately.
func (w *Worker) Join() {
	if !w.started.Load() {
		return
	}
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for msg := range w.requests {
		if msg.kind == msgQuit {
			return
		}
		w.decodeOne(msg.frame)
	}
}

func (w *Worker) decodeOne(frame camera.Frame) {
	var img image.Image = frame.Gray()
	if w.framing != nil {
		if rect := w.framing(); !rect.IsZero() {
			img = frame.Crop(centeredRect(frame, rect))
		}
	}

	res, err := w.decoder.Decode(img)
	if err != nil {
		if !errors.Is(err, barcode.ErrNotFound) {
			slog.Warn("Decode attempt failed", "error", err)
		}
		w.post(event{kind: evDecodeFail})
		return
	}
	slog.Debug("Decode succeeded", "format", res.Format, "chars", len(res.Text))
	w.post(event{kind: evDecodeOK, result: res})
}

func (w *Worker) post(ev event) {
	select {
	case w.events <- ev:
	default:
		// Mailbox full can only happen during teardown; late replies are
		// dropped there anyway.
	}
}

// centeredRect positions the scan window in the middle of the frame.
func centeredRect(frame camera.Frame, rect camera.Size) image.Rectangle {
	w, h := rect.Width, rect.Height
	if w > frame.Width {
		w = frame.Width
	}
	if h > frame.Height {
		h = frame.Height
	}
	x := (frame.Width - w) / 2
	y := (frame.Height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
