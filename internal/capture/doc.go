// Package capture implements the preview/decode/result loop: a decode worker
// that owns the decoder on a private goroutine, and a coordinator state
// machine that sequences the camera controller against the worker and reports
// one outcome per session upward. All coordination is message passing through
// per-actor FIFO mailboxes; the coordinator never blocks its run loop.
package capture
