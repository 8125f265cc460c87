package transcode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscodeLargeJPEGFitsBoundingBox(t *testing.T) {
	if testing.Short() {
		t.Skip("encodes a 12 MP source")
	}

	src := Source{Data: encodeJPEG(t, gradient(4000, 3000)), MediaType: MediaTypeJPEG}

	res, err := New().Transcode(context.Background(), src, DefaultConstraints())
	require.NoError(t, err)
	assert.Equal(t, Dimensions{600, 450}, res.Dimensions)
	assert.Equal(t, MediaTypeJPEG, res.MediaType)
}

func TestTranscodePNGIsForcedToJPEG(t *testing.T) {
	src := Source{Data: encodePNG(t, gradient(500, 400)), MediaType: MediaTypePNG}
	c := DefaultConstraints()
	c.MaxOutputBytes = 204800

	res, err := New().Transcode(context.Background(), src, c)
	require.NoError(t, err)

	assert.Equal(t, MediaTypeJPEG, res.MediaType)
	assert.LessOrEqual(t, res.Size, int64(204800))
	assert.Equal(t, Dimensions{500, 400}, res.Dimensions, "no upscaling")
	assert.Equal(t, 0.6, res.Quality, "png ladder starts at 0.6")
	assert.Equal(t, TransportBase64.Size(len(res.Data), res.MediaType), res.Size)
	assert.Equal(t, len(res.Data), res.EncodedSize)
	assert.Equal(t, 1, res.Attempts)
}

func TestTranscodeOnePixelImage(t *testing.T) {
	src := Source{Data: encodePNG(t, gradient(1, 1)), MediaType: MediaTypePNG}

	res, err := New().Transcode(context.Background(), src, DefaultConstraints())
	require.NoError(t, err)
	assert.Equal(t, Dimensions{1, 1}, res.Dimensions)
}

func TestTranscodeNoiseIsBudgetUnattainable(t *testing.T) {
	src := Source{Data: encodePNG(t, noise(600, 600, 42)), MediaType: MediaTypePNG}
	c := DefaultConstraints()
	c.MaxOutputBytes = 4096

	res, err := New().Transcode(context.Background(), src, c)
	require.Error(t, err)
	assert.Nil(t, res, "an over-budget candidate is never a success")
	assert.ErrorIs(t, err, ErrBudgetUnattainable)

	var be *BudgetError
	require.True(t, errors.As(err, &be))
	require.NotNil(t, be.Best)
	assert.Equal(t, int64(4096), be.Budget)
	assert.Greater(t, be.Best.Size, int64(4096))
	assert.Equal(t, Dimensions{480, 480}, be.Best.Dimensions)
	assert.Equal(t, 0.4, be.Best.Quality)
	assert.Equal(t, 1, be.Best.Rounds)
	assert.Equal(t, 6, be.Best.Attempts)
}

func TestTranscodeShrinksOnlyAfterLadderIsExhausted(t *testing.T) {
	rec := &recordingEncoder{inner: JPEGEncoder{}}
	p := New(WithEncoder(rec))

	c := DefaultConstraints()
	c.MaxOutputBytes = 1
	c.MaxShrinkRounds = 2
	c.Transport = TransportBinary

	src := Source{Data: encodeJPEG(t, gradient(1000, 500)), MediaType: MediaTypeJPEG}

	_, err := p.Transcode(context.Background(), src, c)
	require.ErrorIs(t, err, ErrBudgetUnattainable)

	wantDims := []Dimensions{{600, 300}, {480, 240}, {384, 192}}
	require.Len(t, rec.calls, len(wantDims)*len(c.QualityLadder))

	for i, cl := range rec.calls {
		round, step := i/len(c.QualityLadder), i%len(c.QualityLadder)
		assert.Equal(t, wantDims[round], cl.dim, "call %d", i)
		assert.Equal(t, c.QualityLadder[step], cl.quality, "call %d", i)
	}

	var be *BudgetError
	require.True(t, errors.As(err, &be))
	for _, cl := range rec.calls {
		assert.LessOrEqual(t, be.Best.EncodedSize, cl.size, "best is the smallest candidate")
	}
}

func TestTranscodeReturnsBestQualityThatFits(t *testing.T) {
	src := Source{Data: encodeJPEG(t, noise(300, 200, 9)), MediaType: MediaTypeJPEG}

	// Measure the ladder first, then put the budget on the third rung.
	probe := &recordingEncoder{inner: JPEGEncoder{}}
	c := DefaultConstraints()
	c.Transport = TransportBinary
	c.MaxOutputBytes = 1
	c.MaxShrinkRounds = 0
	_, err := New(WithEncoder(probe)).Transcode(context.Background(), src, c)
	require.ErrorIs(t, err, ErrBudgetUnattainable)
	require.Len(t, probe.calls, 4)

	c.MaxOutputBytes = int64(probe.calls[2].size)

	want := -1
	for i, cl := range probe.calls {
		if int64(cl.size) <= c.MaxOutputBytes {
			want = i
			break
		}
	}
	require.GreaterOrEqual(t, want, 0)

	res, err := New().Transcode(context.Background(), src, c)
	require.NoError(t, err)
	assert.Equal(t, c.QualityLadder[want], res.Quality)
	assert.Equal(t, want+1, res.Attempts)
	assert.LessOrEqual(t, res.Size, c.MaxOutputBytes)
}

func TestTranscodeStopsShrinkingAtOnePixel(t *testing.T) {
	rec := &recordingEncoder{inner: JPEGEncoder{}}
	c := DefaultConstraints()
	c.MaxOutputBytes = 1
	c.MaxShrinkRounds = 5

	src := Source{Data: encodeJPEG(t, gradient(1, 1)), MediaType: MediaTypeJPEG}

	_, err := New(WithEncoder(rec)).Transcode(context.Background(), src, c)
	require.ErrorIs(t, err, ErrBudgetUnattainable)
	assert.Len(t, rec.calls, len(c.QualityLadder))
}

func TestTranscodeWithEveryRasterizer(t *testing.T) {
	src := Source{Data: encodePNG(t, gradient(900, 300)), MediaType: MediaTypePNG}

	for name, r := range rasterizers() {
		t.Run(name, func(t *testing.T) {
			res, err := New(WithRasterizer(r)).Transcode(context.Background(), src, DefaultConstraints())
			require.NoError(t, err)
			assert.Equal(t, Dimensions{600, 200}, res.Dimensions)
		})
	}
}

func TestTranscodeErrors(t *testing.T) {
	valid := encodePNG(t, gradient(10, 10))

	tests := []struct {
		name    string
		src     Source
		mutate  func(*Constraints)
		wantErr error
	}{
		{"unsupported media type", Source{Data: valid, MediaType: "image/webp"}, nil, ErrUnsupportedFormat},
		{"corrupt", Source{Data: []byte{0x89, 'P', 'N', 'G', 0, 0}, MediaType: MediaTypePNG}, nil, ErrCorruptImage},
		{"invalid constraints", Source{Data: valid, MediaType: MediaTypePNG}, func(c *Constraints) { c.QualityLadder = nil }, ErrInvalidConstraints},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConstraints()
			if tt.mutate != nil {
				tt.mutate(&c)
			}

			res, err := New().Transcode(context.Background(), tt.src, c)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTranscodeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := Source{Data: encodePNG(t, gradient(50, 50)), MediaType: MediaTypePNG}

	_, err := New().Transcode(ctx, src, DefaultConstraints())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGoDeliversSingleOutcome(t *testing.T) {
	src := Source{Data: encodePNG(t, gradient(50, 50)), MediaType: MediaTypePNG}

	ch := New().Go(context.Background(), src, DefaultConstraints())

	out, ok := <-ch
	require.True(t, ok)
	require.NoError(t, out.Err)
	assert.Equal(t, Dimensions{50, 50}, out.Result.Dimensions)

	_, ok = <-ch
	assert.False(t, ok, "channel is closed after the outcome")
}
