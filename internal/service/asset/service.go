package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/image-transcoder/internal/model"
	"github.com/aliskhannn/image-transcoder/internal/transcode"
)

var (
	// ErrNoProfiles is returned when an upload names no profile.
	ErrNoProfiles = errors.New("no profiles requested")
	// ErrAssetNotReady is returned when the rendition of an asset is not stored yet.
	ErrAssetNotReady = errors.New("asset not ready")
)

// fileStorage defines the interface for storing files (e.g., MinIO).
type fileStorage interface {
	Save(ctx context.Context, prefix, filename, contentType string, src io.Reader, size int64) (string, error)
	Load(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// producer defines the interface for enqueueing transcode jobs (e.g., Kafka).
type producer interface {
	Produce(ctx context.Context, a model.Asset) error
}

// processor runs the transcoding pipeline.
type processor interface {
	Constraints(profile string) (transcode.Constraints, error)
	Profiles() map[string]transcode.Constraints
	Transcode(ctx context.Context, profile string, src transcode.Source) (*transcode.Result, error)
	Process(ctx context.Context, a model.Asset) (model.Asset, error)
}

// repository defines the interface for asset persistence.
type repository interface {
	SaveAsset(ctx context.Context, a model.Asset) (uuid.UUID, error)
	GetAsset(ctx context.Context, id uuid.UUID) (model.Asset, error)
	CountBySource(ctx context.Context, sourcePath string) (int, error)
	UpdateAsset(ctx context.Context, a model.Asset) error
	DeleteAsset(ctx context.Context, id uuid.UUID) error
}

// Service provides business logic for asset operations.
// It stores uploaded originals, records one asset per requested profile
// and publishes a transcode job for each of them.
type Service struct {
	fileStorage fileStorage
	producer    producer
	processor   processor
	repo        repository
}

// NewService creates a new Service.
func NewService(fs fileStorage, p producer, proc processor, r repository) *Service {
	return &Service{
		fileStorage: fs,
		producer:    p,
		processor:   proc,
		repo:        r,
	}
}

// Preview transcodes src with the profile's constraints and returns the
// payload without storing anything.
func (s *Service) Preview(ctx context.Context, profile string, src transcode.Source) (*transcode.Result, error) {
	res, err := s.processor.Transcode(ctx, profile, src)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}

	zlog.Logger.Info().
		Str("profile", profile).
		Str("dimensions", res.Dimensions.String()).
		Float64("quality", res.Quality).
		Int64("size", res.Size).
		Int("attempts", res.Attempts).
		Msg("preview transcoded")

	return res, nil
}

// Profiles returns the configured constraints keyed by profile name.
func (s *Service) Profiles() map[string]transcode.Constraints {
	return s.processor.Profiles()
}

// UploadAsset stores the original once and creates a pending asset and a
// transcode job for every requested profile.
func (s *Service) UploadAsset(
	ctx context.Context,
	profiles []string,
	filename, mediaType string,
	file io.Reader,
	size int64,
) ([]model.Asset, error) {
	mt, err := transcode.ParseMediaType(mediaType)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	profiles = normalizeProfiles(profiles)
	if len(profiles) == 0 {
		return nil, fmt.Errorf("upload: %w", ErrNoProfiles)
	}

	for _, p := range profiles {
		if _, err := s.processor.Constraints(p); err != nil {
			return nil, fmt.Errorf("upload: %w", err)
		}
	}

	src, err := s.fileStorage.Save(ctx, "original", uuid.NewString()+path.Ext(filename), string(mt), file, size)
	if err != nil {
		return nil, fmt.Errorf("upload: failed to save file: %w", err)
	}

	assets := make([]model.Asset, len(profiles))
	for i, p := range profiles {
		a := model.Asset{
			Profile:    p,
			Filename:   filename,
			SourcePath: src,
			SourceType: string(mt),
			Status:     model.StatusPending,
		}

		id, err := s.repo.SaveAsset(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("upload: failed to save asset: %w", err)
		}

		a.ID = id
		assets[i] = a
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range assets {
		a := a
		g.Go(func() error {
			if err := s.producer.Produce(gctx, a); err != nil {
				return fmt.Errorf("upload: failed to enqueue %s: %w", a.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zlog.Logger.Info().
		Str("source", src).
		Strs("profiles", profiles).
		Msg("asset uploaded")

	return assets, nil
}

// ProcessAsset transcodes a pending asset and stores the outcome.
func (s *Service) ProcessAsset(ctx context.Context, a model.Asset) (uuid.UUID, error) {
	processed, err := s.processor.Process(ctx, a)
	if err != nil {
		return uuid.Nil, fmt.Errorf("process: %w", err)
	}

	if err := s.repo.UpdateAsset(ctx, processed); err != nil {
		return uuid.Nil, fmt.Errorf("process: %w", err)
	}

	if processed.Status == model.StatusFailed {
		zlog.Logger.Warn().
			Str("id", processed.ID.String()).
			Str("profile", processed.Profile).
			Str("reason", processed.Error).
			Msg("asset failed")
	}

	return processed.ID, nil
}

// GetAssetMeta returns the asset record.
func (s *Service) GetAssetMeta(ctx context.Context, id uuid.UUID) (model.Asset, error) {
	a, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return model.Asset{}, fmt.Errorf("get: %w", err)
	}

	return a, nil
}

// GetAsset returns the asset record and a reader over its rendition.
// The caller must close the reader.
func (s *Service) GetAsset(ctx context.Context, id uuid.UUID) (model.Asset, io.ReadCloser, error) {
	a, err := s.GetAssetMeta(ctx, id)
	if err != nil {
		return model.Asset{}, nil, err
	}

	if a.Status != model.StatusProcessed || a.Path == "" {
		return a, nil, fmt.Errorf("get: %w: status %s", ErrAssetNotReady, a.Status)
	}

	r, err := s.fileStorage.Load(ctx, a.Path)
	if err != nil {
		return model.Asset{}, nil, fmt.Errorf("get: %w", err)
	}

	return a, r, nil
}

// DeleteAsset removes the asset, its rendition and, once no other asset
// refers to it, the original.
func (s *Service) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetAsset(ctx, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if err := s.fileStorage.Delete(ctx, a.Path); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if err := s.repo.DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	n, err := s.repo.CountBySource(ctx, a.SourcePath)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	if n == 0 {
		if err := s.fileStorage.Delete(ctx, a.SourcePath); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}

	return nil
}

func normalizeProfiles(profiles []string) []string {
	seen := make(map[string]struct{}, len(profiles))
	out := make([]string, 0, len(profiles))

	for _, p := range profiles {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	return out
}
