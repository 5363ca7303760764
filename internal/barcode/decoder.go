package barcode

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/pdf417"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrNotFound reports that no barcode was present in the image. It is a benign
// outcome during live scanning, not a fault.
var ErrNotFound = errors.New("no barcode found")

// Options configures a Decoder for one scan session.
type Options struct {
	// Formats constrains the set of symbologies to search.
	// Empty means all supported.
	Formats []Format

	// CharacterSet is the preferred text encoding for decoding, given as an
	// IANA charset name. Empty means the decoder's automatic detection.
	CharacterSet string

	// TryHarder enables a more exhaustive search (slower but more robust).
	TryHarder bool
}

// ValidateCharacterSet resolves an IANA charset name, returning the canonical
// name. An empty name is valid and resolves to empty.
func ValidateCharacterSet(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unknown character set %q", name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return "", fmt.Errorf("unknown character set %q", name)
	}
	return canonical, nil
}

// allFormats is the search order for an unrestricted decoder: 2D symbologies
// first, then the 1D family.
var allFormats = []Format{
	FormatQR, FormatDataMatrix, FormatAztec, FormatPDF417,
	FormatCode128, FormatCode39, FormatEAN8, FormatEAN13,
	FormatUPCA, FormatUPCE, FormatITF, FormatCodabar,
}

func newReader(f Format) (gozxing.Reader, error) {
	switch f {
	case FormatQR:
		return qrcode.NewQRCodeReader(), nil
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixReader(), nil
	case FormatAztec:
		return aztec.NewAztecReader(), nil
	case FormatPDF417:
		return pdf417.NewPDF417Reader(), nil
	case FormatCode128:
		return oned.NewCode128Reader(), nil
	case FormatCode39:
		return oned.NewCode39Reader(), nil
	case FormatEAN8:
		return oned.NewEAN8Reader(), nil
	case FormatEAN13:
		return oned.NewEAN13Reader(), nil
	case FormatUPCA:
		return oned.NewUPCAReader(), nil
	case FormatUPCE:
		return oned.NewUPCEReader(), nil
	case FormatITF:
		return oned.NewITFReader(), nil
	case FormatCodabar:
		return oned.NewCodaBarReader(), nil
	default:
		return nil, fmt.Errorf("unsupported barcode format %q", f)
	}
}

// Decoder holds one reader per enabled symbology and tries them in order. A
// Decoder is not safe for concurrent use; the decode worker owns one instance.
type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewDecoder builds a decoder for the given options. Unknown formats or an
// unknown character set are configuration errors.
func NewDecoder(opts Options) (*Decoder, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = allFormats
	}
	readers := make([]gozxing.Reader, 0, len(formats))
	for _, f := range formats {
		r, err := newReader(f)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
	}

	hints := make(map[gozxing.DecodeHintType]interface{})
	if opts.CharacterSet != "" {
		cs, err := ValidateCharacterSet(opts.CharacterSet)
		if err != nil {
			return nil, err
		}
		hints[gozxing.DecodeHintType_CHARACTER_SET] = cs
	}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return &Decoder{readers: readers, hints: hints}, nil
}

// Decode searches img for a single barcode, trying each enabled symbology in
// order. It returns ErrNotFound when no enabled reader finds a valid code.
func (d *Decoder) Decode(img image.Image) (*Result, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("building binary bitmap: %w", err)
	}
	for _, reader := range d.readers {
		r, err := reader.Decode(bmp, d.hints)
		if err != nil {
			// Reader misses (not found, checksum, malformed) just mean this
			// symbology is not present; move on to the next.
			continue
		}
		return convertResult(r), nil
	}
	return nil, ErrNotFound
}

func convertResult(r *gozxing.Result) *Result {
	out := &Result{
		Text:     r.GetText(),
		Format:   mapFormatFromZXing(r.GetBarcodeFormat()),
		RawBytes: r.GetRawBytes(),
		Metadata: Metadata{Orientation: -1},
	}
	for key, value := range r.GetResultMetadata() {
		switch key {
		case gozxing.ResultMetadataType_ORIENTATION:
			if v, ok := value.(int); ok {
				out.Metadata.Orientation = v
			}
		case gozxing.ResultMetadataType_ERROR_CORRECTION_LEVEL:
			if v, ok := value.(string); ok {
				out.Metadata.ECLevel = v
			}
		case gozxing.ResultMetadataType_BYTE_SEGMENTS:
			if v, ok := value.([][]byte); ok {
				out.Metadata.ByteSegments = v
			}
		}
	}
	return out
}
