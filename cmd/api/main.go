package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sibusisodev/campusmart-backend/api/routes"
	"github.com/sibusisodev/campusmart-backend/internal/auth"
	"github.com/sibusisodev/campusmart-backend/internal/cart"
	"github.com/sibusisodev/campusmart-backend/internal/items"
	"github.com/sibusisodev/campusmart-backend/internal/orders"
	"github.com/sibusisodev/campusmart-backend/internal/payments"
	"github.com/sibusisodev/campusmart-backend/internal/photos"
	"github.com/sibusisodev/campusmart-backend/internal/photos/sweeper"
	"github.com/sibusisodev/campusmart-backend/internal/users"
	"github.com/sibusisodev/campusmart-backend/pkg/auth/session"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	"github.com/sibusisodev/campusmart-backend/pkg/db"
	"github.com/sibusisodev/campusmart-backend/pkg/imaging"
	"github.com/sibusisodev/campusmart-backend/pkg/logger"
	"github.com/sibusisodev/campusmart-backend/pkg/metrics"
	"github.com/sibusisodev/campusmart-backend/pkg/migrate"
	"github.com/sibusisodev/campusmart-backend/pkg/pubsub"
	"github.com/sibusisodev/campusmart-backend/pkg/redis"
	"github.com/sibusisodev/campusmart-backend/pkg/square"
	"github.com/sibusisodev/campusmart-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing object storage", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	squareClient, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())

	verifier, err := auth.NewCredentialVerifier(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create credential verifier", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Verifier:       verifier,
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	deletionPublisher, err := sweeper.NewPublisher(pubsubClient.PhotoDeletionPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create photo deletion publisher", err)
		os.Exit(1)
	}

	itemsRepo := items.NewRepository(dbClient.DB())
	itemsService, err := items.NewService(itemsRepo, deletionPublisher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create items service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), itemsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewServiceWithDefaults(dbClient, dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:       payments.NewRepository(dbClient.DB()),
		Orders:     orders.NewRepository(dbClient.DB()),
		Charger:    squareClient,
		LocationID: cfg.Square.LocationID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	photosService, err := photos.NewService(photos.NewRepository(dbClient.DB()), gcsClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create photos service", err)
		os.Exit(1)
	}

	uploadMetrics := metrics.NewUploadMetrics(prometheus.DefaultRegisterer)
	uploader, err := photos.NewUploader(
		cfg.Photos,
		imaging.NewCompressor(cfg.Photos.ItemMaxWidth, cfg.Photos.ItemQuality),
		imaging.NewCompressor(cfg.Photos.ProfileMaxWidth, cfg.Photos.ProfileQuality),
		gcsClient,
		photosService,
		deletionPublisher,
		gcsClient.DefaultBucket(),
		uploadMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create photo uploader", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, routes.Services{
			Session:  sessionManager,
			Auth:     authService,
			Register: registerService,
			Users:    usersService,
			Items:    itemsService,
			Cart:     cartService,
			Orders:   ordersService,
			Payments: paymentsService,
			Photos:   photosService,
			Uploader: uploader,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}
