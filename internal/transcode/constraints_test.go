package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraintsValidate(t *testing.T) {
	assert.NoError(t, DefaultConstraints().Validate())

	tests := []struct {
		name   string
		mutate func(*Constraints)
	}{
		{"zero dimension", func(c *Constraints) { c.MaxDimension = 0 }},
		{"zero budget", func(c *Constraints) { c.MaxOutputBytes = 0 }},
		{"empty ladder", func(c *Constraints) { c.QualityLadder = nil }},
		{"quality above one", func(c *Constraints) { c.QualityLadder = []float64{1.2, 0.5} }},
		{"quality zero", func(c *Constraints) { c.QualityLadder = []float64{0.5, 0} }},
		{"increasing ladder", func(c *Constraints) { c.QualityLadder = []float64{0.4, 0.7} }},
		{"repeated quality", func(c *Constraints) { c.QualityLadder = []float64{0.7, 0.7} }},
		{"bad png ladder", func(c *Constraints) { c.PNGQualityLadder = []float64{0.3, 0.6} }},
		{"shrink factor one", func(c *Constraints) { c.DimensionShrinkFactor = 1 }},
		{"shrink factor zero", func(c *Constraints) { c.DimensionShrinkFactor = 0 }},
		{"negative rounds", func(c *Constraints) { c.MaxShrinkRounds = -1 }},
		{"unknown transport", func(c *Constraints) { c.Transport = "uuencode" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConstraints()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConstraints)
		})
	}
}

func TestLadderFor(t *testing.T) {
	c := DefaultConstraints()
	assert.Equal(t, []float64{0.6, 0.5, 0.4}, c.ladderFor(MediaTypePNG))
	assert.Equal(t, []float64{0.7, 0.6, 0.5, 0.4}, c.ladderFor(MediaTypeJPEG))

	c.PNGQualityLadder = nil
	assert.Equal(t, c.QualityLadder, c.ladderFor(MediaTypePNG))
}
