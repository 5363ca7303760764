package bridge

import (
	"bytes"
	"errors"
	"image"

	// Register the still-image formats the decode action accepts.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/scanbridge/internal/barcode"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

var pdfMagic = []byte("%PDF")

// DecodeImagePayload runs the single-image decode path: lenient base64 to
// bytes, bytes to pixels (PDF pages are unwrapped to their embedded images),
// pixels through the decoder with try-harder enabled.
func DecodeImagePayload(payload string) (*barcode.Result, *session.Error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, session.NewError(session.KindInvalidBase64, "%v", err)
	}

	dec, err := barcode.NewDecoder(barcode.Options{TryHarder: true})
	if err != nil {
		return nil, session.NewError(session.KindInternal, "%v", err)
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return decodePDF(dec, data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, session.NewError(session.KindInternal, "unreadable image: %v", err)
	}
	return decodeImage(dec, img)
}

// decodePDF unwraps the embedded images of a PDF payload and decodes the
// first one holding a barcode.
func decodePDF(dec *barcode.Decoder, data []byte) (*barcode.Result, *session.Error) {
	extracted, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, nil)
	if err != nil {
		return nil, session.NewError(session.KindInternal, "extracting PDF images: %v", err)
	}

	found := false
	for _, pageImages := range extracted {
		for _, raw := range pageImages {
			img, _, err := image.Decode(raw)
			if err != nil {
				continue
			}
			found = true
			res, derr := decodeImage(dec, img)
			if derr == nil {
				return res, nil
			}
			if derr.Kind != session.KindDecodeNotFound {
				return nil, derr
			}
		}
	}
	if !found {
		return nil, session.NewError(session.KindInternal, "no images in PDF payload")
	}
	return nil, session.NewError(session.KindDecodeNotFound, "no barcode in PDF payload")
}

func decodeImage(dec *barcode.Decoder, img image.Image) (*barcode.Result, *session.Error) {
	res, err := dec.Decode(img)
	if errors.Is(err, barcode.ErrNotFound) {
		return nil, session.NewError(session.KindDecodeNotFound, "no barcode in image")
	}
	if err != nil {
		return nil, session.NewError(session.KindInternal, "%v", err)
	}
	return res, nil
}
