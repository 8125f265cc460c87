package asset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-transcoder/internal/model"
	assetrepo "github.com/aliskhannn/image-transcoder/internal/repository/asset"
)

// service defines the interface for processing requested transcodes.
type service interface {
	ProcessAsset(ctx context.Context, a model.Asset) (uuid.UUID, error)
}

// RequestedHandler handles Kafka messages for assets waiting to be transcoded.
type RequestedHandler struct {
	service service
}

// NewRequestedHandler creates a new handler with the given service.
func NewRequestedHandler(s service) *RequestedHandler {
	return &RequestedHandler{service: s}
}

// Handle decodes the asset carried by msg and transcodes it.
// Messages that can never succeed (malformed payload, deleted asset) are
// logged and acknowledged.
func (h *RequestedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var a model.Asset
	if err := json.Unmarshal(msg.Value, &a); err != nil {
		zlog.Logger.Err(err).
			Str("key", string(msg.Key)).
			Msg("dropping malformed transcode job")
		return nil
	}

	id, err := h.service.ProcessAsset(ctx, a)
	if err != nil {
		if errors.Is(err, assetrepo.ErrAssetNotFound) {
			zlog.Logger.Warn().
				Str("id", a.ID.String()).
				Msg("asset deleted before transcoding")
			return nil
		}

		return fmt.Errorf("process asset: %w", err)
	}

	zlog.Logger.Info().Str("id", id.String()).Msg("asset processed")

	return nil
}
