package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-transcoder/internal/model"
)

var ErrAssetNotFound = errors.New("asset not found")

// Repository provides CRUD operations for assets in the database.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SaveAsset inserts a new pending asset and returns its UUID.
func (r *Repository) SaveAsset(ctx context.Context, a model.Asset) (uuid.UUID, error) {
	query := `
		INSERT INTO assets (profile, filename, source_path, source_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.Master.QueryRowContext(
		ctx, query, a.Profile, a.Filename, a.SourcePath, a.SourceType, a.Status,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save: failed to save asset: %w", err)
	}

	return id, nil
}

// GetAsset retrieves an asset by ID.
func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (model.Asset, error) {
	query := `
		SELECT profile, filename, source_path, source_type, path, mime_type,
		       width, height, quality, size_bytes, status, error, created_at
		FROM assets
		WHERE id = $1
	`

	a := model.Asset{ID: id}
	err := r.db.Master.QueryRowContext(ctx, query, id).Scan(
		&a.Profile, &a.Filename, &a.SourcePath, &a.SourceType, &a.Path, &a.MimeType,
		&a.Width, &a.Height, &a.Quality, &a.SizeBytes, &a.Status, &a.Error, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Asset{}, ErrAssetNotFound
		}

		return model.Asset{}, fmt.Errorf("get: failed to get asset: %w", err)
	}

	return a, nil
}

// CountBySource returns how many assets still reference the original at sourcePath.
func (r *Repository) CountBySource(ctx context.Context, sourcePath string) (int, error) {
	query := `SELECT count(*) FROM assets WHERE source_path = $1`

	var n int
	if err := r.db.Master.QueryRowContext(ctx, query, sourcePath).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: failed to count assets: %w", err)
	}

	return n, nil
}

// UpdateAsset stores the outcome of a transcode job.
func (r *Repository) UpdateAsset(ctx context.Context, a model.Asset) error {
	query := `
		UPDATE assets
		SET path = $1, mime_type = $2, width = $3, height = $4, quality = $5,
		    size_bytes = $6, status = $7, error = $8
		WHERE id = $9
	`

	res, err := r.db.Master.ExecContext(
		ctx, query, a.Path, a.MimeType, a.Width, a.Height, a.Quality, a.SizeBytes, a.Status, a.Error, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update: failed to update asset: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update: failed to get number of rows affected: %w", err)
	}

	if rows == 0 {
		return ErrAssetNotFound
	}

	return nil
}

// DeleteAsset deletes an asset record by ID.
func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM assets WHERE id = $1
	`

	res, err := r.db.Master.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: failed to delete asset: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: failed to get number of rows affected: %w", err)
	}

	if n == 0 {
		return ErrAssetNotFound
	}

	return nil
}
