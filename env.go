package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sadopc/eod/internal/assistant"
	"github.com/sadopc/eod/internal/config"
	"github.com/sadopc/eod/internal/directory"
	"github.com/sadopc/eod/internal/logging"
	"github.com/sadopc/eod/internal/reporting"
	"github.com/sadopc/eod/internal/store"
)

// env is everything a command needs, opened once per invocation.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	svc    *reporting.Service
	ai     assistant.Assistant
}

func openEnv(ctx context.Context, configFile string) (*env, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	s, err := store.New(cfg.DataPath)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	svc := reporting.New(reporting.Options{
		Backend:   s,
		Settings:  s,
		Directory: directory.Default(),
		Logger:    logger.Named("reporting"),
	})
	ai := assistant.NewGemini(ctx, assistant.Config{
		APIKey:  cfg.Assistant.APIKey,
		Model:   cfg.Assistant.Model,
		Timeout: cfg.Assistant.Timeout,
	}, logger.Named("assistant"))

	logger.Debug("environment ready", zap.String("data_path", cfg.DataPath))
	return &env{cfg: cfg, logger: logger, store: s, svc: svc, ai: ai}, nil
}

func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn("close store", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}
