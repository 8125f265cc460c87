package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-transcoder/internal/config"
)

// fetchBackoff is the pause after a fetch that failed all retries.
const fetchBackoff = 500 * time.Millisecond

// requestedHandler handles transcode job messages.
type requestedHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Consumer reads transcode jobs from Kafka and hands them to the handler.
type Consumer struct {
	Client   *wbfkafka.Consumer
	handler  requestedHandler
	cfg      *config.Kafka
	strategy retry.Strategy
}

// New creates a new Consumer.
// - cfg: Kafka configuration struct
// - s: retry strategy
// - h: handler for transcode job messages
func New(cfg *config.Kafka, s retry.Strategy, h requestedHandler) *Consumer {
	consumer := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	return &Consumer{
		Client:   consumer,
		handler:  h,
		cfg:      cfg,
		strategy: s,
	}
}

// Consume fetches messages until ctx is canceled. A message is committed
// once the handler returns nil; otherwise it stays uncommitted and is
// delivered again after a rebalance or restart.
func (c *Consumer) Consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	zlog.Logger.Info().
		Str("topic", c.cfg.Topic).
		Str("group", c.cfg.GroupID).
		Msg("starting consumer")

	for {
		if ctx.Err() != nil {
			zlog.Logger.Info().Msg("shutdown signal received, stopping consumer")
			return
		}

		var msg kafka.Message
		err := retry.Do(func() error {
			var fetchErr error
			msg, fetchErr = c.Client.Fetch(ctx)
			return fetchErr
		}, c.strategy)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			zlog.Logger.Err(err).Msg("failed to fetch message")
			time.Sleep(fetchBackoff)
			continue
		}

		if err := c.handler.Handle(ctx, msg); err != nil {
			zlog.Logger.Err(err).
				Str("key", string(msg.Key)).
				Int64("offset", msg.Offset).
				Msg("failed to handle transcode job")
			continue
		}

		err = retry.Do(func() error {
			return c.Client.Commit(ctx, msg)
		}, c.strategy)
		if err != nil {
			zlog.Logger.Err(err).Msg("failed to commit message after retries")
			continue
		}

		zlog.Logger.Info().
			Str("key", string(msg.Key)).
			Int64("offset", msg.Offset).
			Msg("transcode job handled")
	}
}
