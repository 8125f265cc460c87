// Package transcode turns user-selected PNG/JPEG bytes into a JPEG payload
// that fits a display footprint and a transported byte budget.
package transcode

import (
	"fmt"
	"strings"
)

// MediaType is the declared or produced MIME type of an image.
type MediaType string

const (
	MediaTypePNG  MediaType = "image/png"
	MediaTypeJPEG MediaType = "image/jpeg"
)

// ParseMediaType normalizes a Content-Type style value ("image/jpg; charset=..."
// included) and reports whether it is one the pipeline accepts.
func ParseMediaType(s string) (MediaType, error) {
	mt := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch mt {
	case string(MediaTypePNG):
		return MediaTypePNG, nil
	case string(MediaTypeJPEG), "image/jpg", "image/pjpeg":
		return MediaTypeJPEG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Supported reports whether the pipeline decodes this media type.
func (m MediaType) Supported() bool {
	return m == MediaTypePNG || m == MediaTypeJPEG
}

// Source is an image as handed over by an upload form.
type Source struct {
	Data      []byte
	MediaType MediaType
}

// Size returns the source length in bytes.
func (s Source) Size() int {
	return len(s.Data)
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// LongEdge returns the larger of width and height.
func (d Dimensions) LongEdge() int {
	if d.Width > d.Height {
		return d.Width
	}

	return d.Height
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Result is a candidate that satisfied the budget, or the smallest one
// attached to a BudgetError.
type Result struct {
	Data        []byte
	MediaType   MediaType
	Dimensions  Dimensions
	Quality     float64
	Size        int64 // transported size
	EncodedSize int   // raw encoded size
	Rounds      int   // shrink rounds applied
	Attempts    int   // encode attempts made by the whole search
	Transport   Transport
}

// Payload returns the result wrapped in its transport envelope.
func (r *Result) Payload() string {
	return r.Transport.Encode(r.Data, r.MediaType)
}
