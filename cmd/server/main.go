package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	jwttoken "gatepass/internal/jwt_token"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/httpserver"
	"gatepass/internal/platform/logger"
	platformmetrics "gatepass/internal/platform/metrics"
	platformredis "gatepass/internal/platform/redis"
	"gatepass/internal/qrcode"
	"gatepass/internal/registration/handler"
	regmetrics "gatepass/internal/registration/metrics"
	"gatepass/internal/registration/service"
	"gatepass/internal/registration/store"
	httptransport "gatepass/internal/transport/http"
	"gatepass/pkg/platform/audit"
	auditpublisher "gatepass/pkg/platform/audit/publisher"
	auditmemory "gatepass/pkg/platform/audit/store/memory"
	auditpostgres "gatepass/pkg/platform/audit/store/postgres"
	auditworker "gatepass/pkg/platform/audit/worker"
	"gatepass/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Storage: PostgreSQL when configured, in-memory for local development.
	var (
		regStore   service.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		regStore = store.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
		regStore = store.NewMemory()
		auditStore = auditmemory.New()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Attendance log pipeline: non-blocking publisher feeding a worker.
	publisher := auditpublisher.New(1024, auditpublisher.WithLogger(log))
	worker := auditworker.NewWorker(auditStore, publisher.Events(), log)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := worker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error("attendance log worker stopped", "error", err)
		}
	}()

	svc, err := service.New(regStore,
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(regmetrics.New()),
	)
	if err != nil {
		log.Error("build registration service", "error", err)
		os.Exit(1)
	}

	// Renderer chain: local encoder first, external API as fallback, the
	// whole chain behind the Redis image cache when available.
	qrMetrics := qrcode.NewMetrics()
	renderers := []qrcode.Renderer{qrcode.NewLocalRenderer()}
	if cfg.RenderAPIEndpoint != "" {
		renderers = append(renderers, qrcode.NewHTTPRenderer(cfg.RenderAPIEndpoint,
			qrcode.WithRenderTimeout(cfg.RenderTimeout)))
	}
	chain, err := qrcode.NewChain(renderers,
		qrcode.WithChainLogger(log),
		qrcode.WithChainMetrics(qrMetrics),
	)
	if err != nil {
		log.Error("build renderer chain", "error", err)
		os.Exit(1)
	}

	var renderer qrcode.Renderer = chain
	if redisClient != nil {
		cached, err := qrcode.NewCachedRenderer(chain, redisClient.Client,
			qrcode.WithCacheTTL(cfg.Redis.ImageTTL),
			qrcode.WithCacheLogger(log),
			qrcode.WithCacheMetrics(qrMetrics),
		)
		if err != nil {
			log.Error("build image cache", "error", err)
			os.Exit(1)
		}
		renderer = cached
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "gatepass", "gatepass-staff")

	h := handler.New(svc, renderer, handler.Config{
		VerifyBaseURL: cfg.VerifyBaseURL,
		PayloadSalt:   cfg.PayloadSalt,
	}, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Registration: h,
		StaffAuth:    auth.RequireStaff(jwttoken.NewJWTServiceAdapter(jwtService), log),
		HTTPMetrics:  platformmetrics.New(),
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting gatepass", "addr", cfg.Addr)

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
