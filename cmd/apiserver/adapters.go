package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/session"
	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/database/redis"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/storage/minio"
	"github.com/turtacn/fluoriclogppka-studio/internal/intelligence/fluoriclogppka"
	httpserver "github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/handlers"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/middleware"
)

// application holds the wired server and everything that must be released
// on shutdown.
type application struct {
	server  *httpserver.Server
	sweeper *session.MemoryStore
	closers []namedCloser
	logger  logging.Logger
}

type namedCloser struct {
	name  string
	close func() error
}

// Close releases resources in reverse creation order.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("failed to close resource", logging.String("resource", c.name), logging.Err(err))
		}
	}
}

func (a *application) onClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

func newApplication(ctx context.Context, cfg *config.Config, logger logging.Logger) (*application, error) {
	app := &application{logger: logger}
	if err := app.wire(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *application) wire(ctx context.Context, cfg *config.Config) error {
	logger := a.logger
	metrics, metricsHandler, err := newMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	inference, err := fluoriclogppka.NewClient(cfg.Inference, logger)
	if err != nil {
		return fmt.Errorf("failed to create inference client: %w", err)
	}
	a.onClose("inference", inference.Close)

	gatewayOpts := []prediction.Option{
		prediction.WithLogger(logger),
		prediction.WithMetrics(metrics),
	}
	if cfg.Kafka.Enabled {
		publisher, err := kafka.NewEventPublisherFromConfig(ctx, cfg.Kafka, logger)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		a.onClose("kafka", publisher.Close)
		gatewayOpts = append(gatewayOpts, prediction.WithPublisher(publisher))
	}
	gateway := prediction.NewGateway(inference, cfg.Inference, gatewayOpts...)

	checkers := []handlers.HealthChecker{
		handlers.NewChecker("inference", gateway.Healthy),
	}

	store, err := a.newSessionStore(cfg, logger, metrics)
	if err != nil {
		return err
	}
	if p, ok := store.(session.Pinger); ok {
		checkers = append(checkers, handlers.NewChecker(cfg.Session.Backend, p.Ping))
	}

	var artifacts reporting.ArtifactStore
	if cfg.MinIO.Enabled {
		mc, err := minio.NewMinIOClient(cfg.MinIO, logger)
		if err != nil {
			return err
		}
		a.onClose("minio", mc.Close)
		artifacts = minio.NewExportRepository(mc, logger)
		checkers = append(checkers, handlers.NewChecker("minio", mc.HealthCheck))
	}
	exporter := reporting.NewExporter(artifacts, logger, metrics)

	normalizer := molecule.NewNormalizer(molecule.WithLogger(logger))
	actions := session.NewActions(normalizer, gateway,
		session.WithLogger(logger),
		session.WithMetrics(metrics))

	gin.SetMode(cfg.Server.Mode)
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORS.AllowedOrigins
	if cfg.CORS.MaxAge > 0 {
		cors.MaxAge = cfg.CORS.MaxAge
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		MoleculeHandler:   handlers.NewMoleculeHandler(normalizer, logger),
		PredictionHandler: handlers.NewPredictionHandler(gateway),
		SessionHandler:    handlers.NewSessionHandler(actions, store, exporter, logger),
		HealthHandler:     handlers.NewHealthHandler(version, metrics, checkers...),
		Logger:            logger,
		Metrics:           metrics,
		MetricsHandler:    metricsHandler,
		MetricsPath:       cfg.Metrics.Path,
		CORS:              cors,
		Logging:           middleware.DefaultLoggingConfig(),
		Session: middleware.SessionConfig{
			HeaderName: cfg.Session.HeaderName,
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
		},
		MaxBodySize: cfg.Server.MaxBodySize,
	})
	a.server = httpserver.NewServer(cfg.Server, router, logger)
	return nil
}

// newMetrics returns the application metrics and the scrape handler.  With
// metrics disabled both are no-ops and the handler is nil.
func newMetrics(cfg config.MetricsConfig, logger logging.Logger) (*prometheus.AppMetrics, http.Handler, error) {
	if !cfg.Enabled {
		return prometheus.NewNoopMetrics(), nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}
	return prometheus.NewAppMetrics(collector), collector.Handler(), nil
}

func (a *application) newSessionStore(cfg *config.Config, logger logging.Logger, metrics *prometheus.AppMetrics) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		rc, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		a.onClose("redis", rc.Close)
		return session.NewRedisStore(rc, session.RedisStoreOptions{
			Prefix:  cfg.Session.KeyPrefix,
			TTL:     cfg.Session.TTL,
			Codec:   cfg.Session.Codec,
			Logger:  logger,
			Metrics: metrics,
		})
	default:
		mem := session.NewMemoryStore(cfg.Session.TTL, logger, metrics)
		a.sweeper = mem
		return mem, nil
	}
}
