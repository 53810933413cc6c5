package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	applicationhandler "tenantgate/internal/application/handler"
	applicationmetrics "tenantgate/internal/application/metrics"
	applicationservice "tenantgate/internal/application/service"
	applicationstore "tenantgate/internal/application/store"
	documenthandler "tenantgate/internal/document/handler"
	documentservice "tenantgate/internal/document/service"
	documentstorage "tenantgate/internal/document/storage"
	identityhandler "tenantgate/internal/identity/handler"
	identitymetrics "tenantgate/internal/identity/metrics"
	"tenantgate/internal/identity/revocation"
	identityservice "tenantgate/internal/identity/service"
	identitystore "tenantgate/internal/identity/store"
	"tenantgate/internal/jwttoken"
	"tenantgate/internal/migrate"
	"tenantgate/internal/platform/config"
	"tenantgate/internal/platform/httpserver"
	"tenantgate/internal/platform/logger"
	"tenantgate/internal/platform/metrics"
	"tenantgate/internal/platform/middleware"
	platformpostgres "tenantgate/internal/platform/postgres"
	platformredis "tenantgate/internal/platform/redis"
	"tenantgate/pkg/platform/audit"
	auditpublisher "tenantgate/pkg/platform/audit/publisher"
	auditmemory "tenantgate/pkg/platform/audit/store/memory"
	auditpostgres "tenantgate/pkg/platform/audit/store/postgres"
	auditworker "tenantgate/pkg/platform/audit/worker"
)

const auditInboxSize = 256

func main() {
	log := logger.New()
	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	db, err := platformpostgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := migrate.Apply(ctx, db, cfg.MigrationsDir); err != nil {
			return err
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	var revocations revoker = revocation.NewInMemory()
	if rdb != nil {
		revocations = revocation.NewRedis(rdb.Client)
	}

	// Audit pipeline: handlers emit into the inbox, the worker fans out to
	// the configured sinks off the request path.
	inbox := make(chan audit.Event, auditInboxSize)
	emitter := audit.NewEmitter(inbox, log)

	var sinks []audit.Store
	if db != nil {
		sinks = append(sinks, auditpostgres.New(db))
	} else {
		sinks = append(sinks, auditmemory.New())
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := auditpublisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
	}
	worker := auditworker.New(inbox, log, sinks...)

	var users identityservice.Store = identitystore.NewInMemory()
	var applications applicationservice.Store = applicationstore.NewInMemory()
	if db != nil {
		users = identitystore.NewPostgres(db)
		applications = applicationstore.NewPostgres(db)
	}

	var blobs documentservice.Storage
	if cfg.DocumentBucket != "" {
		blobs, err = documentstorage.NewS3(ctx, cfg.DocumentBucket, cfg.AWSRegion)
		if err != nil {
			return err
		}
	} else {
		log.Warn("DOCUMENT_BUCKET not set, storing documents in memory")
		blobs = documentstorage.NewInMemory()
	}

	identitySvc := identityservice.New(users, tokens, revocations, cfg.AccessTokenTTL,
		identityservice.WithAudit(emitter),
		identityservice.WithMetrics(identitymetrics.New()),
	)
	applicationSvc := applicationservice.New(applications,
		applicationservice.WithAudit(emitter),
		applicationservice.WithMetrics(applicationmetrics.New()),
	)
	documentSvc := documentservice.New(blobs, cfg.DocumentKeyPrefix,
		documentservice.WithAudit(emitter),
	)

	httpMetrics := metrics.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", healthz(db, rdb))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	identityhandler.New(identitySvc, tokens, revocations, log).Register(r)
	applicationhandler.New(applicationSvc, tokens, revocations, log).Register(r)
	documenthandler.New(documentSvc, tokens, revocations, log).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func healthz(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}
}
