package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"empresaflow/internal/audit"
	auditmemory "empresaflow/internal/audit/store/memory"
	auditpostgres "empresaflow/internal/audit/store/postgres"
	"empresaflow/internal/empresa/store"
	"empresaflow/internal/empresa/store/memory"
	storepostgres "empresaflow/internal/empresa/store/postgres"
	"empresaflow/internal/empresa/store/rest"
	jwttoken "empresaflow/internal/jwt_token"
	onboardinghandler "empresaflow/internal/onboarding/handler"
	onboardingservice "empresaflow/internal/onboarding/service"
	"empresaflow/internal/platform/config"
	"empresaflow/internal/platform/httpserver"
	"empresaflow/internal/platform/logger"
	"empresaflow/internal/platform/metrics"
	"empresaflow/internal/platform/postgres"
	"empresaflow/internal/platform/redis"
	httptransport "empresaflow/internal/transport/http"
	"empresaflow/internal/wizard/draft"
	wizardhandler "empresaflow/internal/wizard/handler"
	wizardmetrics "empresaflow/internal/wizard/metrics"
	wizardservice "empresaflow/internal/wizard/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	health := map[string]httptransport.HealthCheck{}

	companies, historyStore, closeStore, err := openStore(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeStore()

	slots, closeSlots, err := openSlots(ctx, cfg, health)
	if err != nil {
		return err
	}
	defer closeSlots()

	var (
		outbox chan audit.Event
		sink   *audit.KafkaSink
	)
	publisherOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Audit.Brokers) > 0 {
		sink, err = audit.NewKafkaSink(cfg.Audit.Brokers, cfg.Audit.Topic)
		if err != nil {
			return err
		}
		defer sink.Close()
		outbox = make(chan audit.Event, cfg.Audit.Buffer)
		publisherOpts = append(publisherOpts, audit.WithOutbox(outbox))
	}
	history := audit.NewPublisher(historyStore, publisherOpts...)

	drafts := draft.New(slots, draft.WithLogger(log))
	wizard := wizardservice.New(drafts, companies,
		wizardservice.WithHistory(history),
		wizardservice.WithLogger(log),
		wizardservice.WithMetrics(wizardmetrics.New(reg)),
		wizardservice.WithSubmitTimeout(cfg.Server.SubmitTimeout),
	)
	httpMetrics := metrics.New(reg)
	onboarding := onboardingservice.New(companies, history,
		onboardingservice.WithLogger(log),
		onboardingservice.WithMetrics(httpMetrics),
	)

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   httpMetrics,
		Gatherer:  reg,
		Validator: jwttoken.NewJWTServiceAdapter(jwt),
		Modules: []httptransport.Registrar{
			wizardhandler.New(wizard, log),
			onboardinghandler.New(onboarding, log),
		},
		Health: health,
	})
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.SubmitTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting empresaflow",
			"addr", cfg.Server.Addr,
			"storage_backend", cfg.Database.Backend,
			"draft_backend", draftBackend(cfg),
			"history_topic", cfg.Audit.Topic,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if sink != nil {
		worker := audit.NewWorker(sink, outbox, log)
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore selects the company store and the history store that shares its
// backend, so history rows join the submission transaction where possible.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger, health map[string]httptransport.HealthCheck) (store.Store, audit.Store, func(), error) {
	switch cfg.Database.Backend {
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		health["postgres"] = pinger(db)
		return storepostgres.New(db, storepostgres.WithTxTimeout(cfg.Server.SubmitTimeout)),
			auditpostgres.New(db),
			func() { _ = db.Close() },
			nil
	case config.StorageREST:
		client := rest.NewClient(cfg.REST.BaseURL, cfg.REST.APIKey,
			rest.WithHTTPClient(&http.Client{Timeout: cfg.REST.Timeout}))
		return rest.New(client, rest.WithLogger(log)), rest.NewHistoryStore(client), func() {}, nil
	default:
		log.Warn("using in-memory company storage; data is lost on restart")
		return memory.New(), auditmemory.NewInMemoryStore(), func() {}, nil
	}
}

func openSlots(ctx context.Context, cfg config.Config, health map[string]httptransport.HealthCheck) (draft.Slots, func(), error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return draft.NewMemorySlots(), func() {}, nil
	}
	health["redis"] = client.Health
	return draft.NewRedisSlots(client, draft.WithTTL(cfg.Redis.DraftTTL)), func() { _ = client.Close() }, nil
}

func pinger(db *sqlx.DB) httptransport.HealthCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}

func draftBackend(cfg config.Config) string {
	if cfg.Redis.URL == "" {
		return "memory"
	}
	return "redis"
}
