package session

import (
	"fmt"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
)

// Kind classifies session faults. The host bridge is the only layer that
// turns kinds into caller-facing payloads.
type Kind int

const (
	KindInternal Kind = iota
	KindPermissionDenied
	KindCameraUnavailable
	KindSurfaceInvalid
	KindInvalidConfig
	KindInvalidBase64
	KindDecodeNotFound
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	case KindCameraUnavailable:
		return "CAMERA_UNAVAILABLE"
	case KindSurfaceInvalid:
		return "SURFACE_INVALID"
	case KindInvalidConfig:
		return "INVALID_CONFIG"
	case KindInvalidBase64:
		return "INVALID_BASE64"
	case KindDecodeNotFound:
		return "DECODE_NOT_FOUND"
	case KindBusy:
		return "BUSY"
	default:
		return "INTERNAL"
	}
}

// Error is a classified session fault.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// NewError builds a classified fault.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Outcome is the single result of a session: exactly one of Result, Cancelled
// or Err is set.
type Outcome struct {
	Result    *barcode.Result
	Cancelled bool
	Err       *Error
}

// Scanned wraps a successful live scan.
func Scanned(res *barcode.Result) Outcome { return Outcome{Result: res} }

// Cancelled marks a user- or surface-initiated abort.
func Cancelled() Outcome { return Outcome{Cancelled: true} }

// Failed wraps a classified fault.
func Failed(err *Error) Outcome { return Outcome{Err: err} }

// Callback consumes the session outcome. It is invoked exactly once per
// session, after the camera is closed and the worker joined.
type Callback func(Outcome)
