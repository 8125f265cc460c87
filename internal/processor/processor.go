package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aliskhannn/image-transcoder/internal/model"
	"github.com/aliskhannn/image-transcoder/internal/transcode"
	"github.com/aliskhannn/image-transcoder/internal/worker"
)

var (
	// ErrUnknownProfile is returned for a profile name with no constraints.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrSourceTooLarge is returned when a stored original exceeds maxSourceBytes.
	ErrSourceTooLarge = errors.New("source too large")
)

// maxSourceBytes caps how much of an original is read back from storage.
const maxSourceBytes = 64 << 20

// fileStorage defines the interface for file storage.
// It allows saving and loading files from a backend (e.g., local FS, S3, MinIO).
type fileStorage interface {
	Save(ctx context.Context, prefix, filename, contentType string, src io.Reader, size int64) (string, error)
	Load(ctx context.Context, key string) (io.ReadCloser, error)
}

// transcoder runs one budgeted search.
type transcoder interface {
	Transcode(ctx context.Context, src transcode.Source, c transcode.Constraints) (*transcode.Result, error)
}

// runner executes CPU-bound work off the caller's goroutine budget.
type runner interface {
	Do(ctx context.Context, task worker.Task) error
}

// Processor applies the transcoding pipeline to uploaded images using the
// constraint profile each upload form asked for.
type Processor struct {
	fileStorage fileStorage
	transcoder  transcoder
	pool        runner
	profiles    map[string]transcode.Constraints
}

// New creates a new Processor.
func New(fs fileStorage, t transcoder, pool runner, profiles map[string]transcode.Constraints) *Processor {
	return &Processor{
		fileStorage: fs,
		transcoder:  t,
		pool:        pool,
		profiles:    profiles,
	}
}

// Constraints returns the constraints configured for profile.
func (p *Processor) Constraints(profile string) (transcode.Constraints, error) {
	c, ok := p.profiles[strings.ToLower(profile)]
	if !ok {
		return transcode.Constraints{}, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}

	return c, nil
}

// Profiles returns a copy of every configured profile.
func (p *Processor) Profiles() map[string]transcode.Constraints {
	out := make(map[string]transcode.Constraints, len(p.profiles))
	for k, v := range p.profiles {
		out[k] = v
	}

	return out
}

// Transcode runs the pipeline for src with the profile's constraints on
// the worker pool and waits for the result.
func (p *Processor) Transcode(ctx context.Context, profile string, src transcode.Source) (*transcode.Result, error) {
	c, err := p.Constraints(profile)
	if err != nil {
		return nil, err
	}

	var res *transcode.Result
	err = p.pool.Do(ctx, func(ctx context.Context) error {
		var terr error
		res, terr = p.transcoder.Transcode(ctx, src, c)
		return terr
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Process loads the original of a, transcodes it for a.Profile and stores
// the rendition. Failures that retrying cannot fix mark the asset failed
// and return a nil error; storage failures are returned.
func (p *Processor) Process(ctx context.Context, a model.Asset) (model.Asset, error) {
	mt, err := transcode.ParseMediaType(a.SourceType)
	if err != nil {
		return fail(a, err), nil
	}

	data, err := p.load(ctx, a.SourcePath)
	if err != nil {
		if errors.Is(err, ErrSourceTooLarge) {
			return fail(a, err), nil
		}
		return model.Asset{}, err
	}

	res, err := p.Transcode(ctx, a.Profile, transcode.Source{Data: data, MediaType: mt})
	if err != nil {
		if IsTerminal(err) {
			return fail(a, err), nil
		}
		return model.Asset{}, fmt.Errorf("failed to transcode %s: %w", a.ID, err)
	}

	dst, err := p.fileStorage.Save(
		ctx, "transcoded/"+strings.ToLower(a.Profile), a.ID.String()+extension(res.MediaType),
		string(res.MediaType), bytes.NewReader(res.Data), int64(len(res.Data)),
	)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to save transcoded image: %w", err)
	}

	a.Path = dst
	a.MimeType = string(res.MediaType)
	a.Width = res.Dimensions.Width
	a.Height = res.Dimensions.Height
	a.Quality = res.Quality
	a.SizeBytes = res.Size
	a.Status = model.StatusProcessed
	a.Error = ""

	return a, nil
}

func (p *Processor) load(ctx context.Context, key string) ([]byte, error) {
	r, err := p.fileStorage.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load original image: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read original image: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, maxSourceBytes)
	}

	return data, nil
}

// IsTerminal reports whether err is a transcoding failure that the same
// input will always reproduce.
func IsTerminal(err error) bool {
	return errors.Is(err, transcode.ErrUnsupportedFormat) ||
		errors.Is(err, transcode.ErrCorruptImage) ||
		errors.Is(err, transcode.ErrInvalidImageGeometry) ||
		errors.Is(err, transcode.ErrBudgetUnattainable) ||
		errors.Is(err, transcode.ErrInvalidConstraints) ||
		errors.Is(err, ErrUnknownProfile)
}

func fail(a model.Asset, err error) model.Asset {
	a.Status = model.StatusFailed
	a.Error = err.Error()

	return a
}

func extension(mt transcode.MediaType) string {
	if mt == transcode.MediaTypePNG {
		return ".png"
	}

	return ".jpg"
}
