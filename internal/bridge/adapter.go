// Package bridge is the host-facing request/response surface: it routes one
// caller invocation to the session driver or the single-image decode path and
// marshals the outcome back through the caller's callback handle.
package bridge

import (
	"encoding/json"
	"log/slog"

	"github.com/MeKo-Tech/scanbridge/internal/camera"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

// Callback is the caller's completion handle. Exactly one of Success or Error
// fires per handled invocation.
type Callback interface {
	Success(payload any)
	Error(msg string)
}

// Permissions abstracts the host's camera permission surface. A nil
// Permissions means the permission is always held.
type Permissions interface {
	HasCamera() bool
	RequestCamera(grant func(granted bool))
}

// Encoder receives encode hand-offs. The bridge does not render barcodes
// itself; the host's encoder surface does.
type Encoder interface {
	Encode(contentType, data string) error
}

// ScanPayload is the wire shape of a completed scan.
type ScanPayload struct {
	Text      string `json:"text"`
	Format    string `json:"format"`
	Cancelled bool   `json:"cancelled"`
}

// Options wires the adapter's collaborators.
type Options struct {
	Driver      *session.Driver
	Permissions Permissions
	Encoder     Encoder

	// Surface supplies the host view surface once a scan launches. Required
	// for the scan action.
	Surface func() camera.Surface
}

// Adapter dispatches bridge actions.
type Adapter struct {
	opts Options
}

// NewAdapter builds an adapter over a session driver.
func NewAdapter(opts Options) *Adapter {
	return &Adapter{opts: opts}
}

// Execute routes one invocation. It returns false for unknown actions without
// touching the callback, matching the host's routing contract.
func (a *Adapter) Execute(action string, args json.RawMessage, cb Callback) bool {
	switch action {
	case "scan":
		a.scan(args, cb)
	case "encode":
		a.encode(args, cb)
	case "decode":
		a.decode(args, cb)
	default:
		slog.Debug("Unhandled bridge action", "action", action)
		return false
	}
	return true
}

func (a *Adapter) scan(args json.RawMessage, cb Callback) {
	opts, err := parseScanArgs(args)
	if err != nil {
		cb.Error(err.Error())
		return
	}
	cfg, serr := opts.sessionConfig()
	if serr != nil {
		cb.Error(serr.Error())
		return
	}

	if a.opts.Permissions != nil && !a.opts.Permissions.HasCamera() {
		a.opts.Permissions.RequestCamera(func(granted bool) {
			if !granted {
				slog.Info("Camera permission denied")
				cb.Error(session.KindPermissionDenied.String())
				return
			}
			a.startScan(cfg, cb)
		})
		return
	}
	a.startScan(cfg, cb)
}

func (a *Adapter) startScan(cfg session.Config, cb Callback) {
	if a.opts.Driver == nil || a.opts.Surface == nil {
		cb.Error(session.NewError(session.KindInternal, "no scan surface wired").Error())
		return
	}
	err := a.opts.Driver.Start(cfg, func(o session.Outcome) {
		switch {
		case o.Result != nil:
			cb.Success(ScanPayload{Text: o.Result.Text, Format: o.Result.Format.String()})
		case o.Cancelled:
			cb.Success(ScanPayload{Cancelled: true})
		default:
			cb.Error(o.Err.Error())
		}
	})
	if err != nil {
		cb.Error(err.Error())
		return
	}
	a.opts.Driver.OnSurfaceReady(a.opts.Surface())
}

func (a *Adapter) encode(args json.RawMessage, cb Callback) {
	var list []struct {
		Type string `json:"type"`
		Data string `json:"data"`
	}
	if err := json.Unmarshal(args, &list); err != nil || len(list) == 0 {
		cb.Error(session.NewError(session.KindInvalidConfig, "malformed encode request").Error())
		return
	}
	if a.opts.Encoder == nil {
		cb.Error(session.NewError(session.KindInternal, "no encoder wired").Error())
		return
	}
	// The encoder surface reports its own result; success produces no
	// callback here.
	if err := a.opts.Encoder.Encode(list[0].Type, list[0].Data); err != nil {
		cb.Error(err.Error())
	}
}

func (a *Adapter) decode(args json.RawMessage, cb Callback) {
	var list []string
	if err := json.Unmarshal(args, &list); err != nil || len(list) == 0 {
		cb.Error(session.NewError(session.KindInvalidBase64, "missing payload").Error())
		return
	}

	res, derr := DecodeImagePayload(list[0])
	switch {
	case derr == nil:
		cb.Success(ScanPayload{Text: res.Text, Format: res.Format.String()})
	case derr.Kind == session.KindDecodeNotFound:
		// Benign: the image holds no barcode. The empty error string is the
		// agreed sentinel, not a fault.
		cb.Error("")
	default:
		cb.Error(derr.Error())
	}
}

// parseScanArgs reads the leading options object of the argument array. An
// empty array scans with defaults.
func parseScanArgs(args json.RawMessage) (*scanOptions, *session.Error) {
	opts := &scanOptions{}
	if len(args) == 0 {
		return opts, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(args, &list); err != nil {
		return nil, session.NewError(session.KindInvalidConfig, "malformed argument array: %v", err)
	}
	if len(list) == 0 || string(list[0]) == "null" {
		return opts, nil
	}
	if err := json.Unmarshal(list[0], opts); err != nil {
		return nil, session.NewError(session.KindInvalidConfig, "malformed scan options: %v", err)
	}
	return opts, nil
}
