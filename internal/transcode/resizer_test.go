package transcode

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name string
		src  Dimensions
		max  int
		want Dimensions
	}{
		{"landscape 4000x3000", Dimensions{4000, 3000}, 600, Dimensions{600, 450}},
		{"portrait", Dimensions{3000, 4000}, 600, Dimensions{450, 600}},
		{"square", Dimensions{1200, 1200}, 600, Dimensions{600, 600}},
		{"already fits", Dimensions{500, 400}, 600, Dimensions{500, 400}},
		{"exactly fits", Dimensions{600, 200}, 600, Dimensions{600, 200}},
		{"one pixel", Dimensions{1, 1}, 600, Dimensions{1, 1}},
		{"thin strip keeps one pixel", Dimensions{10000, 3}, 600, Dimensions{600, 1}},
		{"rounds to nearest", Dimensions{1000, 333}, 600, Dimensions{600, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fit(tt.src, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFitRejectsDegenerateGeometry(t *testing.T) {
	for _, src := range []Dimensions{{0, 10}, {10, 0}, {-1, 5}, {0, 0}} {
		_, err := Fit(src, 600)
		assert.ErrorIs(t, err, ErrInvalidImageGeometry, "src %s", src)
	}

	_, err := Fit(Dimensions{10, 10}, 0)
	assert.ErrorIs(t, err, ErrInvalidConstraints)
}

func TestFitPreservesAspectRatio(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		src := Dimensions{Width: 1 + r.Intn(8000), Height: 1 + r.Intn(8000)}
		m := []int{1, 37, 600, 1024}[i%4]

		got, err := Fit(src, m)
		require.NoError(t, err)

		assert.LessOrEqual(t, got.LongEdge(), m)
		assert.GreaterOrEqual(t, got.Width, 1)
		assert.GreaterOrEqual(t, got.Height, 1)

		if src.Width <= m && src.Height <= m {
			assert.Equal(t, src, got)
			continue
		}

		// The shorter edge is within one pixel of the exact scaled value.
		if src.Width >= src.Height {
			exact := float64(src.Height) * float64(m) / float64(src.Width)
			assert.LessOrEqual(t, math.Abs(float64(got.Height)-exact), 1.0, "src %s max %d", src, m)
		} else {
			exact := float64(src.Width) * float64(m) / float64(src.Height)
			assert.LessOrEqual(t, math.Abs(float64(got.Width)-exact), 1.0, "src %s max %d", src, m)
		}
	}
}

func TestShrinkBoundDoesNotCompound(t *testing.T) {
	assert.Equal(t, 600, shrinkBound(600, 0.8, 0))
	assert.Equal(t, 480, shrinkBound(600, 0.8, 1))
	assert.Equal(t, 384, shrinkBound(600, 0.8, 2))
	assert.Equal(t, 307, shrinkBound(600, 0.8, 3))
	assert.Equal(t, 1, shrinkBound(1, 0.8, 5))
}
