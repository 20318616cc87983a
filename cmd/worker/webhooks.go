package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aulins/invoice-api/internal/config"
	"github.com/aulins/invoice-api/internal/kafka"
	"github.com/aulins/invoice-api/internal/logger"
	"github.com/aulins/invoice-api/internal/metrics"
	"github.com/aulins/invoice-api/internal/notify"
	"github.com/aulins/invoice-api/internal/worker"
)

var webhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "Deliver invoice events to webhook sinks",
	RunE:  runWebhooks,
}

func runWebhooks(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(cfg.Log.Level)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	var sinks []notify.Sink
	for _, sc := range cfg.Webhooks.Sinks {
		if !sc.Enabled || strings.TrimSpace(sc.URL) == "" {
			continue
		}
		sinks = append(sinks,
			notify.NewHTTPSink(
				sc.Name,
				strings.TrimRight(sc.URL, "/"),
				sc.TimeoutMs,
				sc.Breaker.FailThreshold,
				sc.Breaker.OpenForMs,
			),
		)
	}
	if len(sinks) == 0 {
		return fmt.Errorf("no sinks enabled in config")
	}
	notifier := notify.NewNotifier(sinks, cfg.Webhooks.MaxAttempts)

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "invapi"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Webhooks.Topic,
		GroupID:        groupID + "-webhooks",
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewWebhookRelay(consumer, notifier, logger.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Log.Info("webhook relay started",
		zap.String("topic", cfg.Webhooks.Topic),
		zap.Int("sinks", len(sinks)))

	return w.Run(ctx)
}
