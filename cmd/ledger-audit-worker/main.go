package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/bet-tracker/internal/ledger-audit/consumer"
	"github.com/radieske/bet-tracker/internal/ledger-audit/repo"
	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/db"
	"github.com/radieske/bet-tracker/internal/shared/kafka"
	"github.com/radieske/bet-tracker/internal/shared/logger"
	"github.com/radieske/bet-tracker/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "ledger-audit-worker"
	}
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if !cfg.KafkaEnabled() {
		log.Fatal("KAFKA_BROKERS is required for the audit worker")
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	if cfg.Env == "local" || cfg.Env == "dev" {
		if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, cfg.TopicLedgerEvents, cfg.TopicLedgerEventsDLQ); err != nil {
			log.Warn("failed to create kafka topics", zap.Error(err))
		}
	}

	// consumer group do audit; a DLQ recebe o que não pôde ser gravado
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicLedgerEvents, cfg.AuditGroupID)
	defer reader.Close()
	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEventsDLQ)
	defer dlq.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_audit_messages_consumed_total", Help: "mensagens consumidas"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_audit_rows_written_total", Help: "linhas gravadas em ledger_audit"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_audit_duplicates_total", Help: "reentregas já gravadas"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_audit_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persisted, duplicates, errorsBy)

	proc := &consumer.Processor{
		Log:         log,
		Reader:      reader,
		Repo:        repo.NewPostgresRepo(pg),
		DLQ:         dlq,
		MaxAttempts: 3,
		RetryDelay:  500 * time.Millisecond,
		OnConsumed:  func() { consumed.Inc() },
		OnPersist:   func() { persisted.Inc() },
		OnDuplicate: func() { duplicates.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log,
		metrics.Check{Name: "postgres", Fn: pg.PingContext},
	)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = msrv.Shutdown(shutdownCtx)
	}()

	log.Info("ledger-audit-worker started",
		zap.String("topic", cfg.TopicLedgerEvents),
		zap.String("group", cfg.AuditGroupID),
	)
	// erro aqui deixa o offset sem commit; o supervisor reinicia o worker
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		_ = msrv.Close()
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("ledger-audit-worker stopped")
}
