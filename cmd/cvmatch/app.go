package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvmatch/internal/config"
	"github.com/kailas-cloud/cvmatch/internal/db"
	boltdb "github.com/kailas-cloud/cvmatch/internal/db/bolt"
	pgdb "github.com/kailas-cloud/cvmatch/internal/db/postgres"
	redisdb "github.com/kailas-cloud/cvmatch/internal/db/redis"
	"github.com/kailas-cloud/cvmatch/internal/domain"
	logpkg "github.com/kailas-cloud/cvmatch/internal/logger"
	"github.com/kailas-cloud/cvmatch/internal/metrics"
	"github.com/kailas-cloud/cvmatch/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/cvmatch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/cvmatch/internal/usecase/embedding"
)

func currentEnv() string {
	if envName != "" {
		return envName
	}
	return config.GetEnv()
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(currentEnv())
}

func newLogger(level string) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(currentEnv(), level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// openStore connects to the configured document store and waits until it answers.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err = redisdb.NewStore(redisdb.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case config.DriverPostgres:
		store, err = pgdb.Connect(ctx, cfg.URL)
	case config.DriverBolt:
		store, err = boltdb.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

// embedderChain is the document embedder plus what the health check and records need.
type embedderChain struct {
	embedder domain.Embedder
	health   *openaiEmb.Embedder
	model    string
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction.
// ok is false when no vectorizer is configured.
func buildEmbedder(cfg *config.Config, store db.KVStore, logger *zap.Logger) (embedderChain, bool) {
	_, vecCfg, ok := cfg.Embedding.DefaultVectorizer()
	if !ok {
		return embedderChain{}, false
	}
	provName := vecCfg.Provider
	provCfg := cfg.Embedding.Providers[provName]

	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Embedding.Cache && store != nil {
		embedder = embcache.New(base, store, cfg.Storage.KeyPrefix, vecCfg.Model, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provName, vecCfg.Model, logger).
		WithMaxBatchSize(vecCfg.MaxBatchSize)

	// Instruction prefix (outermost: cache key includes instruction)
	if vecCfg.DocumentInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, vecCfg.DocumentInstruction)
	}

	logger.Info("Embedder created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache),
	)
	return embedderChain{embedder: embedder, health: base, model: vecCfg.Model}, true
}
