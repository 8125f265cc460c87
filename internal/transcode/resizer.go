package transcode

import (
	"fmt"
	"math"
)

// Fit returns the dimensions that fit src inside a maxDimension square
// while keeping its aspect ratio. The longer edge becomes maxDimension and
// the shorter one is rounded to the nearest pixel. Sources that already
// fit are returned unchanged.
func Fit(src Dimensions, maxDimension int) (Dimensions, error) {
	if src.Width <= 0 || src.Height <= 0 {
		return Dimensions{}, fmt.Errorf("%w: source is %s", ErrInvalidImageGeometry, src)
	}
	if maxDimension <= 0 {
		return Dimensions{}, fmt.Errorf("%w: max dimension %d", ErrInvalidConstraints, maxDimension)
	}

	if src.Width <= maxDimension && src.Height <= maxDimension {
		return src, nil
	}

	if src.Width >= src.Height {
		return Dimensions{
			Width:  maxDimension,
			Height: scaleEdge(src.Height, maxDimension, src.Width),
		}, nil
	}

	return Dimensions{
		Width:  scaleEdge(src.Width, maxDimension, src.Height),
		Height: maxDimension,
	}, nil
}

// scaleEdge returns round(edge*num/den), never less than one pixel.
func scaleEdge(edge, num, den int) int {
	v := int(math.Round(float64(edge) * float64(num) / float64(den)))
	if v < 1 {
		return 1
	}

	return v
}

// shrinkBound returns the long-edge bound for shrink round k. It is
// computed from the fitted long edge each time so rounding never compounds.
func shrinkBound(longEdge int, factor float64, round int) int {
	v := int(math.Round(float64(longEdge) * math.Pow(factor, float64(round))))
	if v < 1 {
		return 1
	}

	return v
}
