package transcode

import "fmt"

// Constraints drive one transcoding search.
type Constraints struct {
	MaxDimension   int       // bounding box edge, pixels
	MaxOutputBytes int64     // ceiling for the transported payload
	QualityLadder  []float64 // decreasing, each in (0, 1]

	// PNGQualityLadder replaces QualityLadder for PNG sources when set.
	PNGQualityLadder []float64

	DimensionShrinkFactor float64 // applied to the long edge once the ladder is exhausted
	MaxShrinkRounds       int
	Transport             Transport
}

// DefaultConstraints mirrors the news upload form.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxDimension:          600,
		MaxOutputBytes:        200 << 10,
		QualityLadder:         []float64{0.7, 0.6, 0.5, 0.4},
		PNGQualityLadder:      []float64{0.6, 0.5, 0.4},
		DimensionShrinkFactor: 0.8,
		MaxShrinkRounds:       1,
		Transport:             TransportBase64,
	}
}

// Validate reports whether c can drive a bounded search.
func (c Constraints) Validate() error {
	if c.MaxDimension <= 0 {
		return fmt.Errorf("%w: max dimension must be positive, got %d", ErrInvalidConstraints, c.MaxDimension)
	}
	if c.MaxOutputBytes <= 0 {
		return fmt.Errorf("%w: max output bytes must be positive, got %d", ErrInvalidConstraints, c.MaxOutputBytes)
	}
	if len(c.QualityLadder) == 0 {
		return fmt.Errorf("%w: quality ladder is empty", ErrInvalidConstraints)
	}
	if err := validateLadder(c.QualityLadder); err != nil {
		return err
	}
	if err := validateLadder(c.PNGQualityLadder); err != nil {
		return fmt.Errorf("png ladder: %w", err)
	}
	if c.DimensionShrinkFactor <= 0 || c.DimensionShrinkFactor >= 1 {
		return fmt.Errorf("%w: shrink factor must be in (0, 1), got %v", ErrInvalidConstraints, c.DimensionShrinkFactor)
	}
	if c.MaxShrinkRounds < 0 {
		return fmt.Errorf("%w: max shrink rounds must not be negative, got %d", ErrInvalidConstraints, c.MaxShrinkRounds)
	}
	if _, err := ParseTransport(string(c.Transport)); err != nil {
		return err
	}

	return nil
}

// ladderFor returns the quality ladder used for sources of type mt.
func (c Constraints) ladderFor(mt MediaType) []float64 {
	if mt == MediaTypePNG && len(c.PNGQualityLadder) > 0 {
		return c.PNGQualityLadder
	}

	return c.QualityLadder
}

func validateLadder(ladder []float64) error {
	for i, q := range ladder {
		if q <= 0 || q > 1 {
			return fmt.Errorf("%w: quality %v at %d is outside (0, 1]", ErrInvalidConstraints, q, i)
		}
		if i > 0 && q >= ladder[i-1] {
			return fmt.Errorf("%w: quality ladder must be strictly decreasing at %d", ErrInvalidConstraints, i)
		}
	}

	return nil
}
