package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aulins/invoice-api/internal/config"
	"github.com/aulins/invoice-api/internal/db"
	httpSrv "github.com/aulins/invoice-api/internal/http"
	"github.com/aulins/invoice-api/internal/kafka"
	"github.com/aulins/invoice-api/internal/logger"
	"github.com/aulins/invoice-api/internal/metrics"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/usage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)
		metrics.MustRegister(prometheus.DefaultRegisterer)

		var store repository.Store
		switch cfg.Store.Driver {
		case "memory":
			store = repository.NewMemoryStore()
		case "mysql", "":
			mysqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
				MaxOpenConns:    cfg.MySQL.MaxOpenConns,
				MaxIdleConns:    cfg.MySQL.MaxIdleConns,
				ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
				ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
				PingTimeout:     cfg.MySQL.PingTimeout,
			})
			if err != nil {
				return fmt.Errorf("mysql connect: %w", err)
			}
			defer mysqlDB.Close()
			store = repository.NewSQLStore(mysqlDB)
		default:
			return fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
		}

		opts := httpSrv.Options{}

		if cfg.Redis.Addr != "" {
			redisClient, err := db.NewRedisClient(db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			opts.Redis = redisClient
		}

		if cfg.ClickHouse.DSN != "" {
			chDB, err := db.NewClickHouseConnection(db.ClickHouseOpts{
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
			defer func() { _ = chDB.Close() }()
			opts.UsageRepo = repository.NewUsageEventsRepository(chDB)
		}

		if cfg.Usage.Enabled && len(cfg.Kafka.Brokers) > 0 {
			producer := kafka.NewProducerFromConfig(kafka.ProducerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Usage.Topic,
			})
			defer func() { _ = producer.Close() }()

			recorder := usage.NewRecorder(producer, cfg.Usage.Buffer, logger.Log)
			defer recorder.Close()
			opts.Recorder = recorder
		}

		server := httpSrv.NewServer(cfg, store, opts)

		errCh := make(chan error, 1)
		go func() {
			logger.Log.Info("starting http", zap.String("addr", cfg.HTTP.Addr))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				logger.Log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
