package respond

import (
	"errors"
	"net/http"

	"github.com/aliskhannn/image-transcoder/internal/processor"
	assetrepo "github.com/aliskhannn/image-transcoder/internal/repository/asset"
	assetsvc "github.com/aliskhannn/image-transcoder/internal/service/asset"
	"github.com/aliskhannn/image-transcoder/internal/storage/file"
	"github.com/aliskhannn/image-transcoder/internal/transcode"
)

// StatusFor maps a service error to the HTTP status reported to the upload form.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, transcode.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, transcode.ErrCorruptImage),
		errors.Is(err, transcode.ErrInvalidImageGeometry),
		errors.Is(err, transcode.ErrBudgetUnattainable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrUnknownProfile),
		errors.Is(err, processor.ErrSourceTooLarge),
		errors.Is(err, assetsvc.ErrNoProfiles):
		return http.StatusBadRequest
	case errors.Is(err, assetrepo.ErrAssetNotFound),
		errors.Is(err, file.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, assetsvc.ErrAssetNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
