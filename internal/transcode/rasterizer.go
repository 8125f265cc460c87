package transcode

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Rasterizer renders an image resampled to the target dimensions onto an
// opaque white surface, so transparent PNG pixels survive the JPEG step.
type Rasterizer interface {
	Rasterize(img image.Image, dim Dimensions) (image.Image, error)
}

// Background is the colour transparent pixels are flattened onto.
var Background color.Color = color.White

// ImagingRasterizer resamples with disintegration/imaging. The zero value
// uses nearest-neighbour; NewImagingRasterizer is bilinear.
type ImagingRasterizer struct {
	Filter imaging.ResampleFilter
}

// NewImagingRasterizer returns a bilinear imaging rasterizer.
func NewImagingRasterizer() ImagingRasterizer {
	return ImagingRasterizer{Filter: imaging.Linear}
}

func (r ImagingRasterizer) Rasterize(img image.Image, dim Dimensions) (image.Image, error) {
	if err := checkTarget(dim); err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, dim.Width, dim.Height, r.Filter)
	canvas := imaging.New(dim.Width, dim.Height, Background)

	return imaging.Overlay(canvas, resized, image.Pt(0, 0), 1.0), nil
}

// DrawRasterizer resamples with a golang.org/x/image/draw interpolator.
type DrawRasterizer struct {
	Interpolator draw.Interpolator
}

func (r DrawRasterizer) Rasterize(img image.Image, dim Dimensions) (image.Image, error) {
	if err := checkTarget(dim); err != nil {
		return nil, err
	}

	interp := r.Interpolator
	if interp == nil {
		interp = draw.BiLinear
	}

	dst := image.NewRGBA(image.Rect(0, 0, dim.Width, dim.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	interp.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	return dst, nil
}

// CanvasRasterizer draws the source onto a fogleman/gg 2D context scaled
// to the target size, the same way the upload forms drew onto a canvas.
type CanvasRasterizer struct{}

func (CanvasRasterizer) Rasterize(img image.Image, dim Dimensions) (image.Image, error) {
	if err := checkTarget(dim); err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: source is %dx%d", ErrInvalidImageGeometry, b.Dx(), b.Dy())
	}

	dc := gg.NewContext(dim.Width, dim.Height)
	dc.SetColor(Background)
	dc.Clear()
	dc.Scale(float64(dim.Width)/float64(b.Dx()), float64(dim.Height)/float64(b.Dy()))
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	return dc.Image(), nil
}

// NewRasterizer builds a rasterizer by name ("imaging", "draw", "canvas")
// and filter ("linear", "catmullrom", "lanczos", "nearest", "approx").
func NewRasterizer(name, filter string) (Rasterizer, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "imaging":
		f, ok := imagingFilters[filter]
		if !ok {
			return nil, fmt.Errorf("%w: unknown imaging filter %q", ErrInvalidConstraints, filter)
		}
		return ImagingRasterizer{Filter: f}, nil
	case "draw":
		interp, ok := drawInterpolators[filter]
		if !ok {
			return nil, fmt.Errorf("%w: unknown draw filter %q", ErrInvalidConstraints, filter)
		}
		return DrawRasterizer{Interpolator: interp}, nil
	case "canvas":
		return CanvasRasterizer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown rasterizer %q", ErrInvalidConstraints, name)
	}
}

var imagingFilters = map[string]imaging.ResampleFilter{
	"":           imaging.Linear,
	"linear":     imaging.Linear,
	"bilinear":   imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

var drawInterpolators = map[string]draw.Interpolator{
	"":           draw.BiLinear,
	"linear":     draw.BiLinear,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
	"approx":     draw.ApproxBiLinear,
	"nearest":    draw.NearestNeighbor,
}

func checkTarget(dim Dimensions) error {
	if dim.Width <= 0 || dim.Height <= 0 {
		return fmt.Errorf("%w: target is %s", ErrInvalidImageGeometry, dim)
	}

	return nil
}
