package transcode

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Encoder compresses a pixel buffer at a normalized quality. It returns the
// bytes and the media type actually produced.
type Encoder interface {
	Encode(img image.Image, source MediaType, quality float64) ([]byte, MediaType, error)
}

// JPEGEncoder always produces JPEG. PNG sources are converted on purpose:
// the payload is a web thumbnail, and JPEG compresses photos far better.
type JPEGEncoder struct{}

func (JPEGEncoder) Encode(img image.Image, _ MediaType, quality float64) ([]byte, MediaType, error) {
	q, err := jpegQuality(quality)
	if err != nil {
		return nil, "", err
	}

	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
		return nil, "", fmt.Errorf("encode jpeg q=%d: %w", q, err)
	}

	return buf.Bytes(), MediaTypeJPEG, nil
}

// jpegQuality maps (0, 1] onto libjpeg's 1..100 scale.
func jpegQuality(q float64) (int, error) {
	if math.IsNaN(q) || q <= 0 || q > 1 {
		return 0, fmt.Errorf("%w: quality %v is outside (0, 1]", ErrInvalidConstraints, q)
	}

	v := int(math.Round(q * 100))
	if v < 1 {
		v = 1
	}

	return v, nil
}
