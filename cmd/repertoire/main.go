package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/repertoire/internal/config"
	dbredis "github.com/kailas-cloud/repertoire/internal/db/redis"
	logpkg "github.com/kailas-cloud/repertoire/internal/logger"
	"github.com/kailas-cloud/repertoire/internal/metrics"
	writerrepo "github.com/kailas-cloud/repertoire/internal/repository/writer"
	chitransport "github.com/kailas-cloud/repertoire/internal/transport/chi"
	"github.com/kailas-cloud/repertoire/internal/transport/searchindex"
	"github.com/kailas-cloud/repertoire/internal/transport/syncjob"
	healthuc "github.com/kailas-cloud/repertoire/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/repertoire/internal/usecase/reconcile"
	registryuc "github.com/kailas-cloud/repertoire/internal/usecase/registry"
	"github.com/kailas-cloud/repertoire/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting repertoire API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbredis.NewStore(dbredis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register registry metrics explicitly (no init())
	metrics.RegisterRegistryMetrics()

	repo := writerrepo.New(store)
	if err := repo.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure writer index", zap.Error(err))
	}

	// Hosted search index — optional, reads fall back to the store without it.
	var (
		index        registryuc.IndexSearcher
		indexChecker healthuc.IndexChecker
	)
	if cfg.SearchIndex.Endpoint != "" {
		client := searchindex.NewClient(&searchindex.Config{
			Endpoint:  cfg.SearchIndex.Endpoint,
			Index:     cfg.SearchIndex.Index,
			SearchKey: cfg.SearchIndex.SearchKey,
			Timeout:   time.Duration(cfg.SearchIndex.TimeoutSec) * time.Second,
			Logger:    logger,
		})
		index = client
		indexChecker = client
		logger.Info("Search index enabled",
			zap.String("endpoint", cfg.SearchIndex.Endpoint),
			zap.String("index", cfg.SearchIndex.Index),
		)
	} else {
		logger.Info("Search index disabled, reads served from database")
	}

	// Index reconcile dispatcher — optional.
	var (
		dispatcher *reconcileuc.Dispatcher
		sync       registryuc.Dispatcher
	)
	if cfg.Sync.Endpoint != "" {
		invoker := syncjob.NewClient(&syncjob.Config{
			Endpoint: cfg.Sync.Endpoint,
			Token:    cfg.Sync.Token,
			Timeout:  time.Duration(cfg.Sync.TimeoutSec) * time.Second,
		})
		dispatcher = reconcileuc.New(invoker, logger).
			WithTimeout(time.Duration(cfg.Sync.TimeoutSec) * time.Second)
		sync = dispatcher
		logger.Info("Index reconciliation enabled", zap.String("endpoint", cfg.Sync.Endpoint))
	} else {
		logger.Info("Index reconciliation disabled")
	}

	registrySvc := registryuc.New(repo, index, sync, logger).
		WithPagination(cfg.Registry.DefaultPageSize, cfg.Registry.MaxPageSize)
	healthSvc := healthuc.New(store, indexChecker)

	server := chitransport.NewServer(registrySvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Let in-flight index reconciles finish before exiting.
	if dispatcher != nil {
		if err := dispatcher.Flush(shutdownCtx); err != nil {
			logger.Warn("Reconcile dispatches still in flight at shutdown", zap.Error(err))
		}
	}

	logger.Info("Server stopped gracefully")
}
