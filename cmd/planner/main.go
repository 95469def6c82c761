// cmd/planner/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timesheet-planner/internal/ai"
	"timesheet-planner/internal/common/clock"
	"timesheet-planner/internal/common/config"
	"timesheet-planner/internal/common/database"
	"timesheet-planner/internal/common/logger"
	"timesheet-planner/internal/common/observability"
	"timesheet-planner/internal/directory"
	"timesheet-planner/internal/notify"
	"timesheet-planner/internal/pipeline"
	"timesheet-planner/internal/pipeline/apply"
	"timesheet-planner/internal/pipeline/intent"
	"timesheet-planner/internal/pipeline/plan"
	"timesheet-planner/internal/pipeline/validate"
	"timesheet-planner/internal/server"
	"timesheet-planner/internal/timesheet"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting timesheet planner...",
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("timesheet-planner")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pgClient *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pgClient, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pgClient.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "PostgreSQL initialization")
	if err != nil {
		zapLog.Fatal("PostgreSQL unavailable", zap.Error(err))
	}
	defer pgClient.Close()

	// --- Init Redis (cache only, non-fatal) ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return redisClient.Ping(pingCtx)
	}, 3, time.Second, zapLog, "Redis initialization")
	if err != nil {
		zapLog.Warn("Redis unavailable, project cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// --- Init Elasticsearch (audit only, non-fatal) ---
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil || esClient.Ping() != nil {
		zapLog.Warn("Elasticsearch unavailable, plan audit disabled", zap.Error(err))
		esClient = nil
	}

	// --- Init notifier (non-fatal) ---
	var notifier pipeline.Notifier
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Notifications.AWS.Region),
	)
	if err != nil {
		zapLog.Warn("AWS config unavailable, notifications disabled", zap.Error(err))
	} else {
		notifier = notify.New(awsCfg, esClientOrNil(esClient), cfg.Notifications, log)
	}

	// --- Assemble the pipeline ---
	dirStore := directory.NewStore(pgClient.DB, redisClientOrNil(redisClient), log)
	tsStore := timesheet.NewStore(pgClient.DB, log)
	aiClient := ai.NewClient(cfg.AI, log)

	p := pipeline.New(
		intent.NewExtractor(aiClient, dirStore, log),
		plan.NewBuilder(clock.System(), dirStore, cfg.Timesheets.WeekStart, log),
		validate.NewValidator(dirStore, tsStore, cfg.Timesheets, log),
		apply.NewApplier(tsStore, log),
		notifier,
		obs,
		log,
	)

	srv := server.New(p, cfg.Server, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	case sig := <-stop:
		zapLog.Info("Shutting down...", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx,
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("shutdown error", zap.Error(err))
		}
	}

	zapLog.Info("Timesheet planner stopped")
}

func redisClientOrNil(c *database.RedisClient) *redis.Client {
	if c == nil {
		return nil
	}
	return c.Client
}

func esClientOrNil(c *database.ElasticsearchClient) *elasticsearch.Client {
	if c == nil {
		return nil
	}
	return c.Client
}
