package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-transcoder/internal/api/handlers/asset"
	"github.com/aliskhannn/image-transcoder/internal/api/handlers/transcode"
	"github.com/aliskhannn/image-transcoder/internal/api/router"
	"github.com/aliskhannn/image-transcoder/internal/api/server"
	"github.com/aliskhannn/image-transcoder/internal/config"
	"github.com/aliskhannn/image-transcoder/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-transcoder/internal/infra/kafka/producer"
	assetmsg "github.com/aliskhannn/image-transcoder/internal/kafka/handlers/asset"
	"github.com/aliskhannn/image-transcoder/internal/processor"
	assetrepo "github.com/aliskhannn/image-transcoder/internal/repository/asset"
	assetsvc "github.com/aliskhannn/image-transcoder/internal/service/asset"
	"github.com/aliskhannn/image-transcoder/internal/storage/file"
	core "github.com/aliskhannn/image-transcoder/internal/transcode"
	"github.com/aliskhannn/image-transcoder/internal/worker"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	profiles, err := cfg.Transcode.Constraints()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid transcode profiles")
	}

	rasterizer, err := core.NewRasterizer(cfg.Transcode.Rasterizer, cfg.Transcode.Filter)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid rasterizer")
	}

	// Connect to PostgreSQL (master and slaves).
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Retry strategy for Kafka calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	storage, err := file.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.BucketName, cfg.Storage.UseSSL)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	pipeline := core.New(
		core.WithDecoder(core.ImagingDecoder{MaxPixels: cfg.Transcode.MaxSourcePixels}),
		core.WithRasterizer(rasterizer),
	)
	pool := worker.New(cfg.Transcode.Workers)

	zlog.Logger.Info().
		Int("workers", pool.Size()).
		Str("rasterizer", cfg.Transcode.Rasterizer).
		Str("filter", cfg.Transcode.Filter).
		Strs("profiles", cfg.Transcode.ProfileNames()).
		Msg("transcoder configured")

	repo := assetrepo.NewRepository(db)
	p := producer.New(&cfg.Kafka, strategy)
	proc := processor.New(storage, pipeline, pool, profiles)
	service := assetsvc.NewService(storage, p, proc, repo)

	requestedHandler := assetmsg.NewRequestedHandler(service)
	c := consumer.New(&cfg.Kafka, strategy, requestedHandler)

	var wg sync.WaitGroup
	wg.Add(1)
	go c.Consume(ctx, &wg)

	r := router.Setup(
		transcode.NewHandler(service, cfg.Server.MaxUploadBytes),
		asset.NewHandler(service, cfg.Server.MaxUploadBytes),
		cfg.Server.AllowedOrigins,
	)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close master DB")
	}
	for i, s := range db.Slaves {
		if err := s.Close(); err != nil {
			zlog.Logger.Error().Err(err).Int("slave", i).Msg("failed to close slave DB")
		}
	}

	if err := p.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
	if err := c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}
}
