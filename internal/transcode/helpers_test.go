package transcode

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// gradient returns a smooth, highly compressible image.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}

	return img
}

// noise returns an image that no JPEG quality setting compresses well.
func noise(w, h int, seed int64) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	r.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))

	return buf.Bytes()
}

func encodeGIF(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	return buf.Bytes()
}

// call is one Encode invocation seen by recordingEncoder.
type call struct {
	dim     Dimensions
	quality float64
	size    int
}

type recordingEncoder struct {
	inner Encoder
	calls []call
}

func (e *recordingEncoder) Encode(img image.Image, mt MediaType, q float64) ([]byte, MediaType, error) {
	data, out, err := e.inner.Encode(img, mt, q)
	if err == nil {
		b := img.Bounds()
		e.calls = append(e.calls, call{
			dim:     Dimensions{Width: b.Dx(), Height: b.Dy()},
			quality: q,
			size:    len(data),
		})
	}

	return data, out, err
}
