package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/apidockhq/apidock/pkg/api"
	"github.com/apidockhq/apidock/pkg/auth"
	"github.com/apidockhq/apidock/pkg/config"
	"github.com/apidockhq/apidock/pkg/notify"
	"github.com/apidockhq/apidock/pkg/observability"
	"github.com/apidockhq/apidock/pkg/reputation"
	"github.com/apidockhq/apidock/pkg/wiki"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"health_port": cfg.Server.HealthPort,
		"db_driver":   cfg.Database.Driver,
	}).Info("Starting APIDock")

	ctx := context.Background()

	// Database
	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database ready")

	// Redis score cache (optional)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable at startup; score reads fall back to the database")
		}
		cancel()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// OpenTelemetry
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	// Grading policy: defaults, optionally overridden by the policy file
	pointValues := reputation.DefaultPointValues()
	thresholds := reputation.DefaultThresholds()
	quotaTable := wiki.DefaultQuotas()
	if cfg.Reputation.PolicyFile != "" {
		policy, err := config.LoadPolicy(cfg.Reputation.PolicyFile)
		if err != nil {
			log.Fatalf("Failed to load policy file: %v", err)
		}
		pointValues = policy.PointValues()
		thresholds = policy.TierThresholds()
		quotaTable = policy.QuotaTable()
		logger.WithField("file", cfg.Reputation.PolicyFile).Info("Grading policy loaded")
	}

	points := reputation.NewPointsConfig(pointValues, logger,
		reputation.WithFallbackHook(func(action reputation.ActionType) {
			if metrics != nil {
				metrics.ConfigFallbacksTotal.WithLabelValues("points").Inc()
			}
		}))
	calc, err := reputation.NewCalculator(thresholds)
	if err != nil {
		log.Fatalf("Invalid tier thresholds: %v", err)
	}
	quotaPolicy, err := wiki.NewPolicy(quotaTable)
	if err != nil {
		log.Fatalf("Invalid edit quota table: %v", err)
	}

	scoreCache, err := reputation.NewScoreCache(redisClient, cfg.Reputation.L1CacheSize, cfg.Reputation.CacheTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create score cache: %v", err)
	}

	// Notifications
	notifyLog := logrus.New()
	notifyLog.SetFormatter(&logrus.JSONFormatter{})
	notifiers := []notify.Notifier{notify.NewLogNotifier(notifyLog)}
	if cfg.Notify.WebhookURL != "" {
		webhookOpts := []notify.WebhookOption{}
		if metrics != nil {
			webhookOpts = append(webhookOpts, notify.WithWebhookMetrics(metrics))
		}
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret, notifyLog, webhookOpts...))
		logger.WithField("url", cfg.Notify.WebhookURL).Info("Webhook notifications enabled")
	}
	notifier := notify.NewMultiNotifier(notifiers...)

	// Core services
	ledgerStore := reputation.NewSQLStore(db)
	ledgerOpts := []reputation.LedgerOption{
		reputation.WithScoreCache(scoreCache),
		reputation.WithUpgradeNotifier(notifier),
		reputation.WithLogger(logger),
	}
	if metrics != nil {
		ledgerOpts = append(ledgerOpts, reputation.WithMetrics(metrics))
	}
	ledger := reputation.NewLedger(ledgerStore, points, calc, ledgerOpts...)

	validator := wiki.NewValidator(quotaPolicy)
	wikiOpts := []wiki.ServiceOption{
		wiki.WithRejectNotifier(notifier),
		wiki.WithLogger(logger),
	}
	if metrics != nil {
		wikiOpts = append(wikiOpts, wiki.WithMetrics(metrics))
	}
	wikiSvc := wiki.NewService(wiki.NewSQLPageStore(db), validator, ledger, wikiOpts...)

	authSvc := auth.NewSQLService(db)

	// API server
	serverOpts := []api.ServerOption{}
	if metrics != nil {
		serverOpts = append(serverOpts, api.WithMetrics(metrics))
	}
	if cfg.Observability.OTelEnabled {
		serverOpts = append(serverOpts, api.WithTracing())
	}
	apiServer := api.NewServer(ledger, wikiSvc, validator, authSvc, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics server on a separate port for probes
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(registry))
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	// Score reconciliation job
	var reconciler *reputation.Reconciler
	if cfg.Reputation.ReconcileSchedule != "" {
		reconciler, err = reputation.NewReconciler(ledger, ledgerStore, cfg.Reputation.ReconcileSchedule, logger)
		if err != nil {
			log.Fatalf("Failed to create reconciler: %v", err)
		}
		reconciler.Start()
	}

	// Policy hot reload
	var policyWatcher *config.PolicyWatcher
	if cfg.Reputation.PolicyFile != "" {
		policyWatcher, err = config.NewPolicyWatcher(cfg.Reputation.PolicyFile, logger, func(p *config.Policy) {
			points.Replace(p.PointValues())
			newPolicy, err := wiki.NewPolicy(p.QuotaTable())
			if err != nil {
				logger.WithError(err).Error("Rejected reloaded quota table, keeping previous quotas")
				return
			}
			validator.ReplacePolicy(newPolicy)
			// Tier thresholds are fixed at startup; a threshold change in the
			// policy file takes effect on the next restart.
			logger.Info("Grading policy reloaded")
		})
		if err != nil {
			log.Fatalf("Failed to watch policy file: %v", err)
		}
		policyWatcher.Start()
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if policyWatcher != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return policyWatcher.Stop()
		})
	}
	if reconciler != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			reconciler.Stop()
			return nil
		})
	}
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		logger.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(shutdown.WaitForShutdown)

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("APIDock stopped")
}

// openDatabase opens the configured SQL database and applies pool limits
func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "sqlite" {
		driver = "sqlite3"
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// runMigrations creates the schema for every store
func runMigrations(ctx context.Context, db *sql.DB) error {
	if err := reputation.NewSQLStore(db).Migrate(ctx); err != nil {
		return err
	}
	if err := wiki.NewSQLPageStore(db).Migrate(ctx); err != nil {
		return err
	}
	return auth.NewSQLService(db).Migrate(ctx)
}
