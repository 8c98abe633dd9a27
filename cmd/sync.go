package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmehdipour/installbase-sync/internal/catalog"
	"github.com/jmehdipour/installbase-sync/internal/config"
	"github.com/jmehdipour/installbase-sync/internal/db"
	httpSrv "github.com/jmehdipour/installbase-sync/internal/http"
	"github.com/jmehdipour/installbase-sync/internal/lease"
	"github.com/jmehdipour/installbase-sync/internal/logger"
	"github.com/jmehdipour/installbase-sync/internal/model"
	"github.com/jmehdipour/installbase-sync/internal/repository"
	"github.com/jmehdipour/installbase-sync/internal/scheduler"
	"github.com/jmehdipour/installbase-sync/internal/status"
	"github.com/jmehdipour/installbase-sync/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncOnce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the recurring install-base sync daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1) load config
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// 2) logger
		logger.Init(cfg.LogLevel)
		defer logger.Sync()

		// 3) graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 4) object store (manifest + records)
		s3c, err := db.NewS3Client(ctx, db.S3Opts{
			Endpoint:       cfg.Repository.Endpoint,
			Region:         cfg.Repository.Region,
			AccessKey:      cfg.Repository.AccessKey,
			SecretKey:      cfg.Repository.SecretKey,
			ForcePathStyle: cfg.Repository.ForcePathStyle,
		})
		if err != nil {
			return fmt.Errorf("s3 client: %w", err)
		}
		objects := repository.NewS3ObjectRepository(s3c, cfg.Repository.Bucket)

		if err := waitForObjectStore(ctx, objects); err != nil {
			return fmt.Errorf("object store unreachable: %w", err)
		}

		// 5) optional redis (cycle lease + rate limiter)
		var rds *redis.Client
		if cfg.LeaseEnabled() {
			rds, err = db.NewRedisClient(ctx, db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = rds.Close() }()
		}

		// 6) optional clickhouse cycle history
		var history repository.HistoryRepository
		if cfg.HistoryEnabled() {
			chDB, err := db.NewClickHouseConnection(ctx, db.ClickHouseOpts{
				DSN:             cfg.ClickHouse.DSN,
				MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
				MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
				ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
				ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
				PingTimeout:     cfg.ClickHouse.PingTimeout,
			})
			if err != nil {
				return fmt.Errorf("clickhouse connect: %w", err)
			}
			defer func() {
				_ = chDB.Close()
			}()
			history = repository.NewCHHistoryRepository(chDB)
		}

		// 7) pipeline: manifest -> catalog -> records
		manifest := repository.NewManifestRepository(objects, cfg.Repository.ManifestKey)
		records := repository.NewRecordsRepository(objects)
		catalogClient := catalog.NewHTTPClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
		syncer := worker.NewSyncer(catalogClient, records, cfg.Sync.Concurrency)

		tracker := status.NewTracker()
		sched := scheduler.New(manifest, syncer, tracker, cfg.Sync.Interval)
		sched.History = history

		var cycleLease *lease.Lease
		if cfg.LeaseEnabled() {
			cycleLease = lease.New(rds, "ibsync:cycle-lease", cfg.Sync.Interval)
			sched.Lease = cycleLease
		}

		// 8) one-shot mode
		if syncOnce {
			rep := sched.RunOnce(ctx)
			if rep.Status == model.CycleAborted {
				return fmt.Errorf("cycle aborted: %s", rep.Error)
			}
			logger.Log.Info("[sync] single cycle done",
				zap.String("cycle_id", rep.CycleID), zap.String("status", rep.Status.String()))
			return nil
		}

		// 9) ops server + scheduler loop
		server := httpSrv.NewServer(cfg, tracker, history, cycleLease, rds, prometheus.DefaultRegisterer)

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start(cfg.HTTP.Addr) }()

		schedDone := make(chan struct{})
		go func() {
			_ = sched.Start(ctx)
			close(schedDone)
		}()

		srvErr := awaitShutdown(ctx, errCh, stop)

		<-schedDone

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)

		// an ops-server failure is a restart-worthy crash, not a clean exit
		return srvErr
	},
}

// awaitShutdown blocks until the signal context is cancelled or the ops
// server fails. A server failure cancels the scheduler via stop and is
// returned so the process exits nonzero.
func awaitShutdown(ctx context.Context, errCh <-chan error, stop context.CancelFunc) error {
	select {
	case <-ctx.Done():
		logger.Log.Info("[sync] shutdown signal received")
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Log.Error("[sync] http server exited", zap.Error(err))
		}
		stop()
		return err
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncOnce, "once", false, "run exactly one cycle and exit")
}

// waitForObjectStore blocks until the bucket answers, retrying with
// exponential backoff for up to two minutes.
func waitForObjectStore(ctx context.Context, objects repository.ObjectRepository) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, objects.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(2*time.Minute),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Log.Warn("[sync] object store not ready, retrying",
				zap.Duration("retry_in", next), zap.Error(err))
		}),
	)
	return err
}
