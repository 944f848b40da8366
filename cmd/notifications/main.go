package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"carpool/internal/events"
	"carpool/internal/server"
	"carpool/pkg/config"
	"carpool/pkg/kafka"
	kafka_middleware "carpool/pkg/kafka/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ServiceName = "carpool-notifications"
	metricsAddr = ":9102"
)

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.Kafka.Enabled {
		cfg.Log.Fatal("KAFKA_ENABLED must be true for the notifications consumer")
	}
	if !cfg.UseMongo() {
		cfg.Log.Warn("Notifications consumer running with memory storage; the API will not see its notifications")
	} else {
		cfg.SetMongo()
	}
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	consumer, err := kafka.NewConsumer(
		cfg.Kafka,
		cfg.EventsTopic,
		cfg.NotificationsGroupID,
		cfg.EventsDLQTopic,
		events.KafkaHandler(server.NewNotificationService(cfg)),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.NewMetrics(registry).ConsumerMiddleware())
	defer func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	}()

	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Metrics server failed", "error", err)
		}
	}()

	cfg.Log.Info("Consuming booking events", "topic", cfg.EventsTopic, "group", cfg.NotificationsGroupID)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Failed to stop metrics server", "error", err)
	}
	cfg.Log.Info("Notifications consumer stopped")
}
