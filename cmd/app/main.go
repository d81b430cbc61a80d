package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"robodelivery/cmd"
	api "robodelivery/internal/adapters/in/http"
	"robodelivery/internal/adapters/out/kafka"
	mongonotifications "robodelivery/internal/adapters/out/mongo/notificationrepo"
	"robodelivery/internal/adapters/out/postgres/migrations"
	pgnotifications "robodelivery/internal/adapters/out/postgres/notificationrepo"
	"robodelivery/internal/adapters/out/websocket"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/telemetry"

	"github.com/labstack/gommon/log"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, logger); err != nil {
		log.Fatalf("service failed: %v", err)
	}
}

func run(ctx context.Context, cfg cmd.Config, logger *slog.Logger) error {
	var cleanup []func(context.Context) error
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for i := len(cleanup) - 1; i >= 0; i-- {
			if err := cleanup[i](shutdownCtx); err != nil {
				logger.Error("shutdown step failed", "error", err)
			}
		}
	}()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName, serviceVersion)
	if err != nil {
		return fmt.Errorf("tracer provider: %w", err)
	}
	cleanup = append(cleanup, shutdownTracer)

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, serviceVersion)
	if err != nil {
		return fmt.Errorf("meter provider: %w", err)
	}
	cleanup = append(cleanup, shutdownMeter)

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	if err = migrations.Up(cfg.DatabaseURL()); err != nil {
		return err
	}

	sqlDB, err := telemetry.OpenDB("postgres", cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	cleanup = append(cleanup, func(context.Context) error { return sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}

	notifications, err := openNotificationStore(ctx, cfg, gormDB, &cleanup)
	if err != nil {
		return err
	}

	var (
		transports []ports.NotificationTransport
		live       api.LiveChannel
	)
	if cfg.WebsocketEnabled {
		hub := websocket.NewHub(logger)
		cleanup = append(cleanup, func(context.Context) error { hub.Close(); return nil })
		transports = append(transports, hub)
		live = hub
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		cleanup = append(cleanup, func(context.Context) error { return publisher.Close() })
		transports = append(transports, publisher)
	}

	root, err := cmd.NewCompositionRoot(cfg, gormDB, notifications, transports, metrics, logger)
	if err != nil {
		return err
	}
	if err = root.Start(); err != nil {
		return err
	}
	cleanup = append(cleanup, func(context.Context) error { root.Stop(); return nil })

	router := api.NewRouter(api.NewServer(root.Handlers(), live, logger), api.RouterConfig{
		Authenticator:  api.NewAuthenticator(cfg.JWTSecret),
		MetricsHandler: metricsHandler,
		Logger:         logger,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort),
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr,
			"robot_registry", cfg.RobotRegistry, "notification_store", cfg.NotificationStore)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openNotificationStore(
	ctx context.Context,
	cfg cmd.Config,
	gormDB *gorm.DB,
	cleanup *[]func(context.Context) error,
) (ports.NotificationRepository, error) {
	if cfg.NotificationStore != cmd.NotificationStoreMongo {
		return pgnotifications.NewGormNotificationRepository(gormDB, cfg.StoreTimeout), nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	*cleanup = append(*cleanup, client.Disconnect)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	if err = client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo := mongonotifications.NewMongoNotificationRepository(client.Database(cfg.MongoDatabase), cfg.StoreTimeout)
	if err = repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return repo, nil
}
