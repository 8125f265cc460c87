package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-transcoder/internal/api/respond"
	"github.com/aliskhannn/image-transcoder/internal/transcode"
)

// multipartMemory is how much of a multipart body is kept in memory.
const multipartMemory = 10 << 20

// service defines the interface for synchronous transcoding.
type service interface {
	Preview(ctx context.Context, profile string, src transcode.Source) (*transcode.Result, error)
	Profiles() map[string]transcode.Constraints
}

// Handler serves the preview and profile endpoints used by upload forms.
type Handler struct {
	service        service
	maxUploadBytes int64
}

// NewHandler creates a new Handler. Bodies larger than maxUploadBytes are rejected.
func NewHandler(s service, maxUploadBytes int64) *Handler {
	return &Handler{service: s, maxUploadBytes: maxUploadBytes}
}

// Payload is the transcoded image as returned to the form.
type Payload struct {
	Data      string  `json:"data"`
	MimeType  string  `json:"mime_type"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Quality   float64 `json:"quality"`
	SizeBytes int64   `json:"size_bytes"`
	Transport string  `json:"transport"`
	Attempts  int     `json:"attempts"`
}

// Profile is the public view of one constraint profile.
type Profile struct {
	MaxDimension     int       `json:"max_dimension"`
	MaxOutputBytes   int64     `json:"max_output_bytes"`
	QualityLadder    []float64 `json:"quality_ladder"`
	PNGQualityLadder []float64 `json:"png_quality_ladder,omitempty"`
	ShrinkFactor     float64   `json:"shrink_factor"`
	MaxShrinkRounds  int       `json:"max_shrink_rounds"`
	Transport        string    `json:"transport"`
}

// Transcode runs the pipeline on the uploaded "image" with the constraints
// of the "profile" form field. Binary transports get the raw bytes back,
// the others a JSON payload.
func (h *Handler) Transcode(c *ginext.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	profile := c.PostForm("profile")
	if profile == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("profile field is required"))
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to retrieve the file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to retrieve the file"))
		return
	}
	defer file.Close()

	mt, err := transcode.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil {
		respond.Fail(c, http.StatusUnsupportedMediaType, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read the file: %v", err))
		return
	}

	res, err := h.service.Preview(c.Request.Context(), profile, transcode.Source{Data: data, MediaType: mt})
	if err != nil {
		status := respond.StatusFor(err)

		var be *transcode.BudgetError
		if errors.As(err, &be) {
			zlog.Logger.Warn().
				Str("profile", profile).
				Str("filename", header.Filename).
				Int64("budget", be.Budget).
				Msg("budget unattainable")
		} else if status == http.StatusInternalServerError {
			zlog.Logger.Err(err).Str("profile", profile).Msg("failed to transcode")
		}

		respond.Fail(c, status, err)
		return
	}

	if res.Transport == transcode.TransportBinary {
		respond.Bytes(c, http.StatusOK, string(res.MediaType), res.Data)
		return
	}

	respond.OK(c, Payload{
		Data:      res.Payload(),
		MimeType:  string(res.MediaType),
		Width:     res.Dimensions.Width,
		Height:    res.Dimensions.Height,
		Quality:   res.Quality,
		SizeBytes: res.Size,
		Transport: string(res.Transport),
		Attempts:  res.Attempts,
	})
}

// Profiles lists the configured constraint profiles.
func (h *Handler) Profiles(c *ginext.Context) {
	profiles := h.service.Profiles()

	out := make(map[string]Profile, len(profiles))
	for name, p := range profiles {
		out[name] = Profile{
			MaxDimension:     p.MaxDimension,
			MaxOutputBytes:   p.MaxOutputBytes,
			QualityLadder:    p.QualityLadder,
			PNGQualityLadder: p.PNGQualityLadder,
			ShrinkFactor:     p.DimensionShrinkFactor,
			MaxShrinkRounds:  p.MaxShrinkRounds,
			Transport:        string(p.Transport),
		}
	}

	respond.OK(c, out)
}
