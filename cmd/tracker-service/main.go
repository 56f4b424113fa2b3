package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	sharedcache "github.com/radieske/bet-tracker/internal/shared/cache"
	"github.com/radieske/bet-tracker/internal/shared/config"
	"github.com/radieske/bet-tracker/internal/shared/kafka"
	"github.com/radieske/bet-tracker/internal/shared/logger"
	"github.com/radieske/bet-tracker/internal/shared/metrics"
	httpapi "github.com/radieske/bet-tracker/internal/tracker/http"
	"github.com/radieske/bet-tracker/internal/tracker/producer"
	"github.com/radieske/bet-tracker/internal/tracker/pubsub"
	"github.com/radieske/bet-tracker/internal/tracker/remotesync"
	"github.com/radieske/bet-tracker/internal/tracker/service"
	"github.com/radieske/bet-tracker/internal/tracker/snapshot"
	"github.com/radieske/bet-tracker/internal/tracker/ws"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tracker-service"
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	log.Info("starting service",
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Env),
		zap.String("snapshot_backend", cfg.SnapshotBackend),
	)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// snapshot durável
	backend, err := snapshot.Open(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open snapshot backend", zap.Error(err))
	}
	defer backend.Close()

	// Redis para os updates ao vivo; sem Redis o serviço segue sem broadcast
	rdb := backend.Redis
	if rdb == nil && cfg.RedisAddr != "" {
		if rdb, err = sharedcache.ConnectRedis(ctx, cfg.RedisAddr); err != nil {
			log.Warn("redis unavailable, live updates disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}
	var bc service.Broadcaster = pubsub.NopBroadcaster{}
	if rdb != nil {
		bc = pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
	}

	// Kafka é opcional (KAFKA_BROKERS vazio desliga a publicação)
	var pub service.Publisher = producer.NopPublisher{}
	if cfg.KafkaEnabled() {
		if cfg.Env == "local" || cfg.Env == "dev" {
			if err := kafka.EnsureTopics(ctx, cfg.KafkaBrokers, cfg.TopicLedgerEvents, cfg.TopicLedgerEventsDLQ); err != nil {
				log.Warn("failed to create kafka topics", zap.Error(err))
			}
		}
		writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicLedgerEvents)
		defer writer.Close()
		pub = producer.NewKafkaPublisher(writer, cfg.TopicLedgerEvents)
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicLedgerEvents))
	}

	// Métricas Prometheus
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_mutations_total", Help: "mutações aplicadas por operação"}, []string{"op"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "tracker_rejections_total", Help: "mutações rejeitadas por motivo"}, []string{"reason"})
	persistErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracker_persist_errors_total", Help: "falhas ao gravar o snapshot"})
	betsGauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "tracker_bets", Help: "apostas no store"})
	capitalGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "tracker_capital", Help: "capital atual por tipster"}, []string{"tipster"})
	prometheus.MustRegister(mutations, rejections, persistErrors, betsGauge, capitalGauge)

	tracker := service.New(service.Options{
		Store:       backend.Store,
		Publisher:   pub,
		Broadcaster: bc,
		Log:         log,
		PageSize:    cfg.DefaultPageSize,
		Hooks: service.Hooks{
			OnMutation:     func(op string) { mutations.WithLabelValues(op).Inc() },
			OnRejected:     func(reason string) { rejections.WithLabelValues(reason).Inc() },
			OnPersistError: func() { persistErrors.Inc() },
			OnState: func(bets int, balances map[string]float64) {
				betsGauge.Set(float64(bets))
				capitalGauge.Reset()
				for name, v := range balances {
					capitalGauge.WithLabelValues(name).Set(v)
				}
			},
		},
	})
	if err := tracker.Load(ctx); err != nil {
		log.Fatal("failed to load snapshot", zap.Error(err))
	}

	// sync remoto na inicialização; falha só é logada
	if cfg.SyncEnabled() {
		syncCtx, syncCancel := context.WithTimeout(ctx, cfg.SyncTimeout)
		tracker.SyncFromRemote(syncCtx, remotesync.New(cfg.SyncAPIBase, cfg.SyncAPIKey, cfg.SyncTimeout))
		syncCancel()
	}

	hub := ws.NewHub(allowOrigin(cfg.CORSOrigins), log)
	wsClients := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "tracker_ws_clients", Help: "conexões websocket ativas"}, func() float64 { return float64(hub.Clients()) })
	prometheus.MustRegister(wsClients)

	api := &httpapi.API{
		Tracker: tracker,
		Hub:     hub,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 2*cfg.RateLimitRPS),
		Origins: cfg.CORSOrigins,
		Log:     log,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Servidor de métricas e health check
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, log,
		metrics.Check{Name: "snapshot", Fn: tracker.Ping},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if rdb != nil {
		g.Go(func() error { return subscribe(gctx, rdb, cfg.RedisPubSubChannel, hub, log) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = msrv.Shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("tracker-service stopped with error", zap.Error(err))
		return
	}
	log.Info("tracker-service stopped")
}

// subscribe repassa o canal Redis para o hub; encerra com o contexto
func subscribe(ctx context.Context, rdb *redis.Client, channel string, hub *ws.Hub, log *zap.Logger) error {
	if err := ws.RunRedisSubscriber(ctx, rdb, channel, hub, log); err != nil && ctx.Err() == nil {
		return fmt.Errorf("redis subscriber: %w", err)
	}
	return nil
}

// allowOrigin aplica a mesma lista de origens do CORS ao upgrade do websocket
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
	}
}
