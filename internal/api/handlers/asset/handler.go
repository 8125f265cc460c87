package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-transcoder/internal/api/respond"
	"github.com/aliskhannn/image-transcoder/internal/model"
)

// multipartMemory is how much of a multipart body is kept in memory.
const multipartMemory = 10 << 20

// service defines the interface for asset operations.
type service interface {
	UploadAsset(ctx context.Context, profiles []string, filename, mediaType string, file io.Reader, size int64) ([]model.Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (model.Asset, io.ReadCloser, error)
	GetAssetMeta(ctx context.Context, id uuid.UUID) (model.Asset, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error
}

// Handler provides HTTP handlers for stored assets.
type Handler struct {
	service        service
	maxUploadBytes int64
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service, maxUploadBytes int64) *Handler {
	return &Handler{service: s, maxUploadBytes: maxUploadBytes}
}

// Upload stores the uploaded "image" and queues one transcode per profile
// listed in the comma-separated "profiles" field.
func (h *Handler) Upload(c *ginext.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to retrieve the file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to retrieve the file"))
		return
	}
	defer file.Close()

	profiles := strings.Split(c.PostForm("profiles"), ",")

	assets, err := h.service.UploadAsset(
		c.Request.Context(), profiles, header.Filename, header.Header.Get("Content-Type"), file, header.Size,
	)
	if err != nil {
		status := respond.StatusFor(err)
		if status == http.StatusInternalServerError {
			zlog.Logger.Err(err).Str("filename", header.Filename).Msg("failed to upload the asset")
		}
		respond.Fail(c, status, err)
		return
	}

	respond.Created(c, assets)
}

// Get serves the transcoded bytes of an asset.
func (h *Handler) Get(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	a, reader, err := h.service.GetAsset(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to get asset")
		return
	}
	defer reader.Close()

	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	respond.Image(c, http.StatusOK, a.MimeType, reader)
}

// GetMeta returns the asset record without serving the file itself.
func (h *Handler) GetMeta(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	a, err := h.service.GetAssetMeta(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to get asset meta")
		return
	}

	respond.OK(c, a)
}

// Delete removes an asset by ID.
func (h *Handler) Delete(c *ginext.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteAsset(c.Request.Context(), id); err != nil {
		h.fail(c, err, "failed to delete asset")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) fail(c *ginext.Context, err error, msg string) {
	status := respond.StatusFor(err)
	if status == http.StatusInternalServerError {
		zlog.Logger.Err(err).Msg(msg)
	} else {
		zlog.Logger.Warn().Err(err).Msg(msg)
	}

	respond.Fail(c, status, err)
}

func parseID(c *ginext.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return uuid.Nil, false
	}

	return id, true
}
