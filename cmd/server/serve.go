package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"grunnlag/internal/grunnlag/adapters"
	"grunnlag/internal/grunnlag/handler"
	grunnlagmetrics "grunnlag/internal/grunnlag/metrics"
	"grunnlag/internal/grunnlag/service"
	ledgerstore "grunnlag/internal/grunnlag/store/ledger"
	versjonstore "grunnlag/internal/grunnlag/store/versjon"
	"grunnlag/internal/platform/config"
	"grunnlag/internal/platform/httpserver"
	"grunnlag/internal/platform/kafka"
	"grunnlag/internal/platform/logger"
	"grunnlag/internal/platform/metrics"
	"grunnlag/internal/platform/postgres"
	platformredis "grunnlag/internal/platform/redis"
	"grunnlag/internal/registry"
	"grunnlag/pkg/platform/audit/publisher"
	auditpostgres "grunnlag/pkg/platform/audit/store/postgres"
	"grunnlag/pkg/platform/audit/worker"
	"grunnlag/pkg/platform/circuit"
	"grunnlag/pkg/platform/middleware/auth"
)

const (
	shutdownTimeout     = 10 * time.Second
	auditTopicPartition = 3
	auditTopicReplicas  = 1
	registryCooldown    = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the grunnlag HTTP API and audit relay",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(log)

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	checks := map[string]healthCheck{"postgres": db.PingContext}

	registryOpts := []registry.Option{
		registry.WithLogger(log),
		registry.WithMetrics(registry.NewMetrics()),
		registry.WithBreaker(circuit.New("registry", circuit.WithCooldown(registryCooldown))),
	}
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
		registryOpts = append(registryOpts, registry.WithCache(registry.NewRedisCache(redisClient.Client, cfg.Registry.CacheTTL)))
	} else {
		log.WarnContext(ctx, "redis not configured, registry lookups are uncached")
	}
	registryClient := registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout, registryOpts...)

	auditStore := auditpostgres.New(db)
	auditPublisher := publisher.New(auditStore,
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics()),
	)

	svc := service.New(ledgerstore.NewPostgres(db, ledgerstore.WithLogger(log)), versjonstore.NewPostgres(db),
		service.WithLogger(log),
		service.WithAuditPublisher(auditPublisher),
		service.WithMetrics(grunnlagmetrics.New()),
		service.WithTx(newVersjonPostgresTx(db)),
		service.WithRegistry(adapters.NewRegistryAdapter(registryClient)),
	)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		defer producer.Close()
		checks["kafka"] = producer.Health

		if err := producer.EnsureTopic(ctx, cfg.Kafka.AuditTopic, auditTopicPartition, auditTopicReplicas); err != nil {
			log.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		relay := worker.NewRelay(auditStore, kafka.NewOutboxSink(producer, cfg.Kafka.AuditTopic),
			worker.WithInterval(cfg.Outbox.PollInterval),
			worker.WithBatchSize(cfg.Outbox.BatchSize),
			worker.WithLogger(log),
		)
		g.Go(func() error {
			return relay.Run(ctx)
		})
	} else {
		log.WarnContext(ctx, "kafka not configured, audit outbox is not relayed")
	}

	validator := auth.NewValidator([]byte(cfg.Auth.JWTSigningKey), cfg.Auth.Issuer, cfg.Auth.Audience)
	router := newRouter(handler.New(svc, log), validator, metrics.NewHTTP(), checks, log)
	srv := httpserver.New(cfg.Server.Addr, router, log)

	g.Go(func() error {
		log.InfoContext(ctx, "starting grunnlag", "addr", cfg.Server.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down grunnlag")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
