package transcode

import (
	"context"
	"fmt"
)

// Pipeline searches (quality, dimension) candidates until one fits the
// budget. It holds no per-call state and is safe for concurrent use as
// long as its collaborators are.
type Pipeline struct {
	decoder    Decoder
	rasterizer Rasterizer
	encoder    Encoder
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecoder replaces the default ImagingDecoder.
func WithDecoder(d Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithRasterizer replaces the default bilinear ImagingRasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(p *Pipeline) { p.rasterizer = r }
}

// WithEncoder replaces the default JPEGEncoder.
func WithEncoder(e Encoder) Option {
	return func(p *Pipeline) { p.encoder = e }
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		decoder:    ImagingDecoder{},
		rasterizer: NewImagingRasterizer(),
		encoder:    JPEGEncoder{},
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Transcode decodes src, fits it into c.MaxDimension and sweeps the quality
// ladder from best to worst, returning the first candidate whose transported
// size is within c.MaxOutputBytes. Only when a whole sweep fails are the
// dimensions shrunk and the sweep repeated, at most c.MaxShrinkRounds times.
//
// When nothing fits, the error is a *BudgetError carrying the smallest
// candidate. ctx is checked between candidates.
func (p *Pipeline) Transcode(ctx context.Context, src Source, c Constraints) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !src.MediaType.Supported() {
		return nil, fmt.Errorf("%w: declared %q", ErrUnsupportedFormat, src.MediaType)
	}
	if c.Transport == "" {
		c.Transport = TransportBase64
	}

	img, err := p.decoder.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	b := img.Bounds()
	fitted, err := Fit(Dimensions{Width: b.Dx(), Height: b.Dy()}, c.MaxDimension)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	ladder := c.ladderFor(src.MediaType)

	var (
		best     *Result
		attempts int
		prev     Dimensions
	)

	for round := 0; round <= c.MaxShrinkRounds; round++ {
		dim := fitted
		if round > 0 {
			dim, err = Fit(Dimensions{Width: b.Dx(), Height: b.Dy()}, shrinkBound(fitted.LongEdge(), c.DimensionShrinkFactor, round))
			if err != nil {
				return nil, fmt.Errorf("shrink: %w", err)
			}
			if dim == prev {
				// Already at the floor; another sweep would repeat the last one.
				break
			}
		}
		prev = dim

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raster, err := p.rasterizer.Rasterize(img, dim)
		if err != nil {
			return nil, fmt.Errorf("rasterize %s: %w", dim, err)
		}

		for _, q := range ladder {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			data, mt, err := p.encoder.Encode(raster, src.MediaType, q)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", dim, err)
			}
			attempts++

			cand := &Result{
				Data:        data,
				MediaType:   mt,
				Dimensions:  dim,
				Quality:     q,
				Size:        c.Transport.Size(len(data), mt),
				EncodedSize: len(data),
				Rounds:      round,
				Transport:   c.Transport,
			}

			if cand.Size <= c.MaxOutputBytes {
				cand.Attempts = attempts
				return cand, nil
			}

			if best == nil || cand.Size < best.Size {
				best = cand
			}
		}
	}

	if best != nil {
		best.Attempts = attempts
	}

	return nil, &BudgetError{Budget: c.MaxOutputBytes, Best: best}
}

// Outcome is the single completion signal of an asynchronous transcode.
type Outcome struct {
	Result *Result
	Err    error
}

// Go runs Transcode on its own goroutine. The returned channel receives
// exactly one Outcome and is then closed.
func (p *Pipeline) Go(ctx context.Context, src Source, c Constraints) <-chan Outcome {
	out := make(chan Outcome, 1)

	go func() {
		defer close(out)

		res, err := p.Transcode(ctx, src, c)
		out <- Outcome{Result: res, Err: err}
	}()

	return out
}
