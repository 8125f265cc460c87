package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG for DecodeConfig
	_ "image/png"  // register PNG for DecodeConfig

	"github.com/disintegration/imaging"
)

// DefaultMaxSourcePixels bounds the decoded pixel count (about 50 MP).
const DefaultMaxSourcePixels = 50_000_000

// Decoder turns source bytes into a pixel buffer.
type Decoder interface {
	Decode(src Source) (image.Image, error)
}

// ImagingDecoder decodes PNG and JPEG with disintegration/imaging and
// applies the EXIF orientation, the way browsers do before drawing.
type ImagingDecoder struct {
	MaxPixels int // zero means DefaultMaxSourcePixels
}

// Decode validates the declared and sniffed formats, checks the geometry
// from the header, then decodes the full image.
func (d ImagingDecoder) Decode(src Source) (image.Image, error) {
	if !src.MediaType.Supported() {
		return nil, fmt.Errorf("%w: declared %q", ErrUnsupportedFormat, src.MediaType)
	}
	if len(src.Data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCorruptImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: content is not a known image container", ErrCorruptImage)
		}

		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptImage, err)
	}

	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("%w: content is %s", ErrUnsupportedFormat, format)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: header reports %dx%d", ErrInvalidImageGeometry, cfg.Width, cfg.Height)
	}

	limit := d.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxSourcePixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImageGeometry, cfg.Width, cfg.Height, limit)
	}

	img, err := imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: decoded %dx%d", ErrInvalidImageGeometry, b.Dx(), b.Dy())
	}

	return img, nil
}
