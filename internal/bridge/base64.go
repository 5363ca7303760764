package bridge

import (
	"encoding/base64"
	"errors"
)

// ErrInvalidBase64 flags a payload whose significant length is not a multiple
// of four symbols.
var ErrInvalidBase64 = errors.New("invalid base64 payload")

// DecodeBase64 decodes the bridge's lenient base64 dialect: characters outside
// the alphabet are ignored rather than rejected, '=' pads, and only the
// filtered length is validated. Four 6-bit symbols repack big-endian into
// three bytes; the pad count is subtracted from the output length.
func DecodeBase64(s string) ([]byte, error) {
	vals := make([]byte, 0, len(s))
	pad := 0
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			vals = append(vals, byte(r-'A'))
		case r >= 'a' && r <= 'z':
			vals = append(vals, byte(r-'a'+26))
		case r >= '0' && r <= '9':
			vals = append(vals, byte(r-'0'+52))
		case r == '+':
			vals = append(vals, 62)
		case r == '/':
			vals = append(vals, 63)
		case r == '=':
			vals = append(vals, 0)
			pad++
		}
	}
	if len(vals)%4 != 0 {
		return nil, ErrInvalidBase64
	}

	out := make([]byte, 0, len(vals)/4*3)
	for i := 0; i < len(vals); i += 4 {
		n := uint32(vals[i])<<18 | uint32(vals[i+1])<<12 | uint32(vals[i+2])<<6 | uint32(vals[i+3])
		out = append(out, byte(n>>16), byte(n>>8), byte(n))
	}
	if pad > len(out) {
		pad = len(out)
	}
	return out[:len(out)-pad], nil
}

// EncodeBase64 produces standard padded base64, which the lenient decoder
// round-trips exactly.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
