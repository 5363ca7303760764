// Package barcode wraps the gozxing decoder behind session-oriented types:
// a symbology enum carrying the bridge's wire names, a Result with raw bytes
// and decoder metadata, and a Decoder configured once per scan session.
package barcode
