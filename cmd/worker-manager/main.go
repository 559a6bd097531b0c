// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realestate-workers/internal/api"
	"realestate-workers/internal/common/aws"
	"realestate-workers/internal/common/camunda"
	"realestate-workers/internal/common/config"
	"realestate-workers/internal/common/database"
	"realestate-workers/internal/common/exchange"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/observability"
	"realestate-workers/internal/interpreter"
	"realestate-workers/internal/models"
	"realestate-workers/pkg/registry"

	qpc "realestate-workers/internal/workers/data-access/query-property-catalog"
	qpi "realestate-workers/internal/workers/data-access/query-property-index"
	na "realestate-workers/internal/workers/property/notify-agent"
	ppq "realestate-workers/internal/workers/property/parse-property-query"
	ri "realestate-workers/internal/workers/property/record-inquiry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func fatal(log logger.Logger, msg string, err error) {
	log.Error(msg, map[string]interface{}{"error": err})
	os.Exit(1)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.App.Name)
	log.Info("starting worker manager", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
		"backend":     cfg.Search.Backend,
	})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		fatal(log, "observability init failed", err)
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		fatal(log, "zeebe client failed after retries", err)
	}
	defer zeebe.Close()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		fatal(log, "postgres failed after retries", err)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		fatal(log, "postgres schema failed", err)
	}

	readiness := map[string]api.Pinger{"postgres": pg}

	// --- Redis (optional) ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		err = retryWithBackoff(func() error {
			redis = database.NewRedis(cfg.Database.Redis)
			return redis.Ping(ctx)
		}, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			fatal(log, "redis failed after retries", err)
		}
		defer redis.Close()
		readiness["redis"] = redis
	}

	// --- Elasticsearch (only for the index backend) ---
	var es *database.ElasticsearchClient
	if cfg.Search.Backend == config.SearchBackendElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			fatal(log, "elasticsearch failed after retries", err)
		}
		if err := es.EnsureIndex(ctx, cfg.Database.Elasticsearch.PropertyIndex, database.PropertyIndexMapping); err != nil {
			fatal(log, "elasticsearch index setup failed", err)
		}
		readiness["elasticsearch"] = es
	}

	// --- Handlers ---
	var converter ppq.CurrencyConverter
	if cfg.Exchange.Enabled {
		var rateCache exchange.RateCache
		if redis != nil {
			rateCache = exchange.NewRedisRateCache(redis)
		}
		converter = exchange.NewConverter(
			exchange.NewProvider(cfg.Exchange.RatesURL, config.GetDuration(cfg.Exchange.Timeout)),
			rateCache,
			time.Duration(cfg.Exchange.CacheTTL)*time.Second,
			log,
		)
	}

	parser := ppq.NewHandler(&ppq.Config{
		Timeout:        config.GetDuration(config.GetWorkerConfig(cfg, ppq.TaskType).Timeout),
		MaxQueryLength: cfg.Search.MaxQueryLength,
		BaseCurrency:   baseCurrency(cfg),
	}, interpreter.New(nil), converter, log)

	featureMatch := models.ParseFeatureMatch(cfg.Search.FeatureMatch)

	var resultCache qpc.ResultCache
	if redis != nil {
		resultCache = redis
	}
	catalog := qpc.NewHandler(&qpc.Config{
		Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, qpc.TaskType).Timeout),
		MaxResults:   cfg.Search.MaxResults,
		FeatureMatch: featureMatch,
		CacheTTL:     time.Duration(cfg.Search.CacheTTL) * time.Second,
	}, pg.DB, resultCache, log)

	var searcher api.Searcher = catalog
	var index *qpi.Handler
	if es != nil {
		index = qpi.NewHandler(&qpi.Config{
			Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, qpi.TaskType).Timeout),
			Index:        cfg.Database.Elasticsearch.PropertyIndex,
			MaxResults:   cfg.Search.MaxResults,
			FeatureMatch: featureMatch,
		}, es.Client, log)
		searcher = index
	}

	inquiries := ri.NewHandler(&ri.Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(cfg, ri.TaskType).Timeout),
	}, pg.DB, log)

	notifier := newNotifier(ctx, cfg, pg, log)

	// --- Workers ---
	handlers := map[string]camunda.JobHandler{
		ppq.TaskType: parser,
		qpc.TaskType: catalog,
		ri.TaskType:  inquiries,
		na.TaskType:  notifier,
	}
	if index != nil {
		handlers[qpi.TaskType] = index
	}

	checkRegistry(handlers, log)

	var workers []*camunda.CamundaWorker
	for taskType, handler := range handlers {
		w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log)
		if w != nil {
			workers = append(workers, w)
		}
	}
	log.Info("workers registered", map[string]interface{}{"count": len(workers)})

	// --- HTTP API ---
	server := api.NewServer(api.Config{
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
		Backend:        cfg.Search.Backend,
		MaxBodyBytes:   int64(cfg.Server.MaxBodyBytes),
	}, parser, searcher, readiness, obs, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		log.Info("http server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "http server failed", err)
		}
	}()

	// --- Shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutting down", map[string]interface{}{"signal": sig.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err})
	}
	for _, w := range workers {
		w.Stop()
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Error("observability shutdown failed", map[string]interface{}{"error": err})
	}
	log.Info("worker manager stopped", nil)
}

// checkRegistry warns about task types that the activity registry does not
// document. It never blocks startup.
func checkRegistry(handlers map[string]camunda.JobHandler, log logger.Logger) {
	path := os.Getenv("ACTIVITY_REGISTRY_PATH")
	if path == "" {
		path = "configs/activity-registry.json"
	}
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry unavailable", map[string]interface{}{"path": path, "error": err})
		return
	}
	taskTypes := make([]string, 0, len(handlers))
	for tt := range handlers {
		taskTypes = append(taskTypes, tt)
	}
	if missing := reg.Missing(taskTypes); len(missing) > 0 {
		log.Warn("task types missing from activity registry", map[string]interface{}{"taskTypes": missing})
	}
}

func baseCurrency(cfg *config.Config) string {
	if !cfg.Exchange.Enabled {
		return ""
	}
	return cfg.Exchange.BaseCurrency
}

// newNotifier builds AWS senders only for the enabled channels.
func newNotifier(ctx context.Context, cfg *config.Config, pg *database.PostgresClient, log logger.Logger) *na.Handler {
	n := cfg.Notifications
	var email na.EmailSender
	var sms na.SMSSender

	if n.Email.Enabled {
		client, err := aws.NewSESClient(ctx, n.AWS.Region)
		if err != nil {
			fatal(log, "ses client init failed", err)
		}
		email = client
	}
	if n.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, n.AWS.Region)
		if err != nil {
			fatal(log, "sns client init failed", err)
		}
		sms = client
	}

	return na.NewHandler(&na.Config{
		EmailEnabled: n.Email.Enabled,
		SMSEnabled:   n.SMS.Enabled,
		FromEmail:    n.Email.FromEmail,
		Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, na.TaskType).Timeout),
	}, pg.DB, email, sms, log)
}
