package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/auth"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/config"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/database/inmem"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/logger"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/metrics"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/reporting"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/routes"
	"github.com/Dagmawi-Y/techtonic-AMS-sub000/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Log, logger.DefaultServiceName)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo database.Repository
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		repo = inmem.Open()
	default:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		client, err := database.ConnectMongoDB(connectCtx, cfg.MongoURI)
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("Failed to disconnect from MongoDB", zap.Error(err))
			}
		}()
		store := database.NewMongoStore(client, cfg.DatabaseName)
		indexCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err = store.EnsureIndexes(indexCtx)
		cancel()
		if err != nil {
			log.Fatal("Failed to create indexes", zap.Error(err))
		}
		repo = store
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	reporter := reporting.NewReporter(repo, reporting.Options{
		PageSize:         cfg.PageSize,
		SessionsPageSize: cfg.SessionsPageSize,
		BatchSize:        cfg.LookupBatchSize,
		Metrics:          m,
		Logger:           log,
	})
	views := reporting.NewViews(reporter, cfg.ViewIdleTimeout, cfg.MaxOpenViews)
	go views.Run(ctx, time.Minute)

	// Initialize router
	router := routes.SetupRouter(routes.App{
		Config:   cfg,
		Repo:     repo,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Reporter: reporter,
		Views:    views,
		Mailer:   utils.NewMailer(cfg.SMTP),
		Metrics:  m,
		Gatherer: registry,
		Log:      log,
	})

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Server running", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
