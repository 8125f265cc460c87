package transcode

import (
	"encoding/base64"
	"fmt"
)

// Transport is the envelope the encoded bytes travel in. The budget is
// enforced against the transported size, not the raw encoded size.
type Transport string

const (
	TransportBinary  Transport = "binary"
	TransportBase64  Transport = "base64"
	TransportDataURL Transport = "data-url"
)

// ParseTransport maps a config value to a Transport; empty means base64.
func ParseTransport(s string) (Transport, error) {
	switch Transport(s) {
	case "", TransportBase64:
		return TransportBase64, nil
	case TransportBinary, TransportDataURL:
		return Transport(s), nil
	default:
		return "", fmt.Errorf("%w: unknown transport %q", ErrInvalidConstraints, s)
	}
}

// Size estimates how many bytes n encoded bytes occupy once wrapped.
func (t Transport) Size(n int, mt MediaType) int64 {
	switch t {
	case TransportBinary:
		return int64(n)
	case TransportDataURL:
		return int64(len(dataURLPrefix(mt)) + base64.StdEncoding.EncodedLen(n))
	default:
		return int64(base64.StdEncoding.EncodedLen(n))
	}
}

// Encode wraps data in the envelope.
func (t Transport) Encode(data []byte, mt MediaType) string {
	switch t {
	case TransportBinary:
		return string(data)
	case TransportDataURL:
		return dataURLPrefix(mt) + base64.StdEncoding.EncodeToString(data)
	default:
		return base64.StdEncoding.EncodeToString(data)
	}
}

func dataURLPrefix(mt MediaType) string {
	return "data:" + string(mt) + ";base64,"
}
