package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cvmatch/internal/metrics"
	documentrepo "github.com/kailas-cloud/cvmatch/internal/repository/document"
	chiTransport "github.com/kailas-cloud/cvmatch/internal/transport/chi"
	"github.com/kailas-cloud/cvmatch/internal/version"
	documentuc "github.com/kailas-cloud/cvmatch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/cvmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/cvmatch/internal/usecase/match"
	"github.com/kailas-cloud/cvmatch/internal/usecase/vectorize"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Start an HTTP server exposing matching, document ingestion, health and metrics endpoints.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort > 0 {
		cfg.HTTP.Port = servePort
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cvmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", currentEnv()),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterMatchMetrics()

	repo := documentrepo.New(store, cfg.Storage.KeyPrefix)

	matchSvc := matchuc.New(repo.VectorSets(), logger).
		WithWorkers(cfg.Match.Workers).
		WithTopAlternatives(cfg.Match.DefaultTopAlternatives, cfg.Match.MaxTopAlternatives).
		WithMaxCandidates(cfg.Match.MaxCandidates)

	var (
		docSvc    *documentuc.Service
		healthSvc *healthuc.Service
	)
	if chain, ok := buildEmbedder(&cfg, store, logger); ok {
		vec := vectorize.New(chain.embedder, logger).
			WithSlots(cfg.Documents.MaxSkills, cfg.Documents.MaxResponsibilities)
		docSvc = documentuc.New(repo, vec, chain.model, logger)
		healthSvc = healthuc.New(store, chain.health)
	} else {
		logger.Warn("No vectorizer configured, document endpoints disabled")
		healthSvc = healthuc.New(store, nil)
	}

	server := chiTransport.NewServer(matchSvc, docSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(cfg.Auth.APIKeys),
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
