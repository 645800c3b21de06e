package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sibusisodev/campusmart-backend/internal/photos/sweeper"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/metrics"
	"github.com/sibusisodev/campusmart-backend/pkg/pubsub"
	"github.com/sibusisodev/campusmart-backend/pkg/storage/gcs"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "photo-sweeper"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "photo-sweeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	requireResource(ctx, logg, "object storage", err)
	defer gcsClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	consumer, err := sweeper.NewConsumer(
		gcsClient,
		pubsubClient.PhotoDeletionSubscription(),
		logg,
		metrics.NewJobMetrics(prometheus.DefaultRegisterer),
	)
	requireResource(ctx, logg, "photo deletion consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env": cfg.App.Env,
	})
	logg.Info(runCtx, "photo sweeper ready")

	if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "photo sweeper stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
