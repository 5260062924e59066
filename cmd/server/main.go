package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	audithandler "hostelgate/internal/audit/handler"
	authhandler "hostelgate/internal/auth/handler"
	authservice "hostelgate/internal/auth/service"
	"hostelgate/internal/auth/store/revocation"
	jwttoken "hostelgate/internal/jwt_token"
	movementhandler "hostelgate/internal/movement/handler"
	"hostelgate/internal/movement/lock"
	movementmetrics "hostelgate/internal/movement/metrics"
	movementservice "hostelgate/internal/movement/service"
	movementstore "hostelgate/internal/movement/store"
	"hostelgate/internal/platform/config"
	"hostelgate/internal/platform/httpserver"
	"hostelgate/internal/platform/logger"
	"hostelgate/internal/platform/metrics"
	"hostelgate/internal/platform/postgres"
	"hostelgate/internal/platform/redis"
	"hostelgate/internal/ratelimit/bucket"
	ratelimit "hostelgate/internal/ratelimit/middleware"
	residenthandler "hostelgate/internal/resident/handler"
	residentservice "hostelgate/internal/resident/service"
	residentstore "hostelgate/internal/resident/store"
	httptransport "hostelgate/internal/transport/http"
	"hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/audit/publisher"
	auditkafka "hostelgate/pkg/platform/audit/store/kafka"
	auditmemory "hostelgate/pkg/platform/audit/store/memory"
	auditmirror "hostelgate/pkg/platform/audit/store/mirror"
	auditpostgres "hostelgate/pkg/platform/audit/store/postgres"
)

const auditBufferSize = 1024

// gateStores is the storage backend selected at startup.
type gateStores interface {
	movementservice.Directory
	residentservice.Store
	authservice.ResidentFinder
}

// infra holds the optional backing services and their shutdown.
type infra struct {
	db      *sql.DB
	redis   *redis.Client
	sink    *auditkafka.Sink
	closers []func(context.Context) error
}

func (i *infra) close(ctx context.Context, log *slog.Logger) {
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](ctx); err != nil {
			log.ErrorContext(ctx, "shutdown step failed", "error", err)
		}
	}
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backing, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backing.close(context.Background(), log)

	httpMetrics := metrics.New()
	auditPublisher := publisher.NewPublisher(auditStore(backing, log),
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
	)
	// the publisher drains before the clients it writes through are closed
	defer auditPublisher.Close()

	var (
		directory gateStores
		ledger    movementservice.Ledger
	)
	if backing.db != nil {
		directory = residentstore.NewPostgres(backing.db)
		ledger = movementstore.NewPostgresLedger(backing.db)
	} else {
		directory = residentstore.NewInMemory()
		ledger = movementstore.NewInMemoryLedger()
	}

	movementOpts := []movementservice.Option{
		movementservice.WithLogger(log),
		movementservice.WithMetrics(movementmetrics.New()),
		movementservice.WithAuditPublisher(auditPublisher),
		movementservice.WithLocation(cfg.Server.Location),
	}
	if backing.db != nil {
		stores := movementservice.Stores{Directory: directory, Ledger: ledger}
		movementOpts = append(movementOpts, movementservice.WithTx(newMovementPostgresTx(backing.db, stores, cfg.Server.TxTimeout)))
	} else {
		movementOpts = append(movementOpts, movementservice.WithTx(movementservice.NewInMemoryTx(directory, ledger, cfg.Server.TxTimeout)))
	}
	if backing.redis != nil {
		movementOpts = append(movementOpts, movementservice.WithLocker(lock.NewRedisLocker(backing.redis.Client, lock.WithTTL(cfg.Server.LockTTL))))
	}
	movements := movementservice.New(directory, ledger, movementOpts...)

	residents := residentservice.New(directory,
		residentservice.WithLogger(log),
		residentservice.WithMetrics(httpMetrics),
		residentservice.WithAuditPublisher(auditPublisher),
	)

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "hostelgate")
	auth := authservice.New(cfg.Accounts, directory, jwt, revocationList(backing),
		authservice.WithLogger(log),
		authservice.WithMetrics(httpMetrics),
		authservice.WithAuditPublisher(auditPublisher),
		authservice.WithTokenTTL(cfg.Server.TokenTTL),
	)
	validator := jwttoken.NewJWTServiceAdapter(jwt)

	routerCfg := httptransport.RouterConfig{
		Logger:   log,
		Latency:  httpMetrics,
		Gatherer: prometheus.DefaultGatherer,
		Checks:   healthChecks(backing),
	}
	router := httptransport.NewRouter(routerCfg,
		authhandler.New(auth, log, validator, auth,
			authhandler.WithLoginLimit(
				ratelimit.New(loginLimiter(backing), log, cfg.Server.LoginRateLimit, cfg.Server.LoginRateWindow).ByClientIP("login"),
			),
		),
		residenthandler.New(residents, log, validator, auth),
		movementhandler.New(movements, log, validator, auth),
		audithandler.New(auditPublisher, log, validator, auth),
	)
	srv := httpserver.New(cfg.Server.Addr, router)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting hostelgate",
			"addr", cfg.Server.Addr,
			"postgres", backing.db != nil,
			"redis", backing.redis != nil,
			"kafka", backing.sink != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// connect opens every configured backing service. Unset URLs leave the
// corresponding field nil and the in-memory fallback is used.
func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	backing := &infra{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		backing.db = db
		backing.closers = append(backing.closers, func(context.Context) error { return db.Close() })
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		backing.close(ctx, log)
		return nil, err
	}
	if client != nil {
		log.InfoContext(ctx, "redis connected", "addr", client.Addr())
		backing.redis = client
		backing.closers = append(backing.closers, func(context.Context) error { return client.Close() })
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(auditkafka.Config{
			Brokers:           cfg.Kafka.Brokers,
			Topic:             cfg.Kafka.AuditTopic,
			ClientID:          cfg.Kafka.ClientID,
			Partitions:        3,
			ReplicationFactor: 1,
		})
		if err != nil {
			backing.close(ctx, log)
			return nil, err
		}
		if err := sink.EnsureTopic(ctx); err != nil {
			log.WarnContext(ctx, "could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		backing.sink = sink
		backing.closers = append(backing.closers, sink.Close)
	}
	return backing, nil
}

func auditStore(backing *infra, log *slog.Logger) audit.Store {
	var local audit.Store = auditmemory.NewInMemoryStore()
	if backing.db != nil {
		local = auditpostgres.New(backing.db)
	}
	if backing.sink == nil {
		return local
	}
	return auditmirror.New(local, backing.sink, auditmirror.WithLogger(log))
}

func revocationList(backing *infra) authservice.RevocationList {
	switch {
	case backing.redis != nil:
		return revocation.NewRedisTRL(backing.redis.Client)
	case backing.db != nil:
		return revocation.NewPostgresTRL(backing.db)
	default:
		return revocation.NewInMemoryTRL()
	}
}

func loginLimiter(backing *infra) ratelimit.Limiter {
	if backing.redis != nil {
		return bucket.NewRedisBucketStore(backing.redis.Client)
	}
	return bucket.NewInMemoryBucketStore()
}

func healthChecks(backing *infra) map[string]httptransport.HealthCheck {
	checks := map[string]httptransport.HealthCheck{}
	if backing.db != nil {
		checks["postgres"] = backing.db.PingContext
	}
	if backing.redis != nil {
		checks["redis"] = backing.redis.Health
	}
	return checks
}
