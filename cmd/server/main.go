package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"carelog/internal/audit"
	auditmemory "carelog/internal/audit/store/memory"
	auditpostgres "carelog/internal/audit/store/postgres"
	"carelog/internal/docstore"
	docmemory "carelog/internal/docstore/memory"
	docpostgres "carelog/internal/docstore/postgres"
	"carelog/internal/enforcement"
	"carelog/internal/jwtauth"
	"carelog/internal/phi/filter"
	"carelog/internal/phi/pattern"
	"carelog/internal/phi/scan"
	"carelog/internal/platform/config"
	"carelog/internal/platform/httpserver"
	"carelog/internal/platform/logger"
	"carelog/internal/platform/metrics"
	platformredis "carelog/internal/platform/redis"
	"carelog/internal/summary"
	summaryhandler "carelog/internal/summary/handler"
	httptransport "carelog/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	allow, err := filter.Load(cfg.AllowlistPath)
	if err != nil {
		log.Error("load allowlist", "error", err)
		os.Exit(1)
	}
	domains := cfg.InstitutionalDomains
	if len(domains) == 0 {
		domains = pattern.DefaultInstitutionalDomains()
	}
	lib := pattern.NewLibrary(pattern.Config{InstitutionalDomains: domains})
	evaluator := enforcement.NewEvaluator(scan.New(lib, allow))

	dispatcher := docstore.NewDispatcher(log)

	var (
		store      docstore.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		cancel()
		store = docpostgres.New(db, dispatcher)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		store = docmemory.New(dispatcher)
		auditStore = auditmemory.NewInMemoryStore()
	}

	var deduper audit.Deduper = audit.NewMemoryDeduper()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		deduper = audit.NewRedisDeduper(redisClient.Client)
	}

	auditWriter, err := audit.NewWriter(auditStore,
		audit.WithDeduper(deduper),
		audit.WithLogger(log),
		audit.WithMetrics(m),
	)
	if err != nil {
		log.Error("build audit writer", "error", err)
		os.Exit(1)
	}

	enforcer, err := enforcement.NewHandler(evaluator, store, auditWriter,
		enforcement.WithLogger(log),
		enforcement.WithMetrics(m),
	)
	if err != nil {
		log.Error("build enforcement handler", "error", err)
		os.Exit(1)
	}
	dispatcher.Register(enforcer)

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	summaryService, err := summary.NewService(store,
		summary.WithLogger(log),
		summary.WithMetrics(m),
	)
	if err != nil {
		log.Error("build summary service", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(
		summaryhandler.New(summaryService, log, jwtService),
	)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting carelog", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
