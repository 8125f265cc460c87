package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-transcoder/internal/config"
	"github.com/aliskhannn/image-transcoder/internal/model"
)

// Producer publishes transcode jobs to Kafka.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	cfg      *config.Kafka
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(cfg *config.Kafka, s retry.Strategy) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)

	return &Producer{
		Client:   producer,
		cfg:      cfg,
		strategy: s,
	}
}

// Produce serializes the asset to JSON and sends it to Kafka.
// The asset ID is used as the message key, so retries of one asset stay ordered.
func (p *Producer) Produce(ctx context.Context, a model.Asset) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal asset: %w", err)
	}

	key := []byte(a.ID.String())

	if err = p.Client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send asset %s: %w", a.ID, err)
	}

	return nil
}
