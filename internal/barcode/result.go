package barcode

// Metadata carries optional decoder-provided detail about a result.
type Metadata struct {
	// Orientation is the detected rotation of the symbol in degrees,
	// -1 when not reported.
	Orientation int

	// ECLevel is the error correction level ("L", "M", "Q", "H" for QR),
	// empty when not reported.
	ECLevel string

	// ByteSegments are the raw byte segments of the symbol, nil when not
	// reported.
	ByteSegments [][]byte
}

// Result represents a decoded barcode.
type Result struct {
	Text     string
	Format   Format
	RawBytes []byte
	Metadata Metadata
}
