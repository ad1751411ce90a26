package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/carteiralab/risk-engine/internal/classifier"
	"github.com/carteiralab/risk-engine/internal/indicator"
	"github.com/carteiralab/risk-engine/internal/service"
	"github.com/carteiralab/risk-engine/internal/store"
	"github.com/carteiralab/risk-engine/pkg/reasoning"
)

// env bundles the long-lived dependencies shared by the commands.
type env struct {
	Store   store.Store
	Service *service.Service
}

// initService opens the store and assembles the pipeline. Without a
// reasoning key every score resolves through the deterministic path.
func initService(ctx context.Context) (*env, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	var client reasoning.Client
	if cfg.Reasoning.Key != "" {
		client = reasoning.NewClient(cfg.Reasoning.Key)
	} else {
		zap.L().Warn("no reasoning key configured, scoring is deterministic only")
	}

	svc := service.New(
		st,
		indicator.New(cfg.Risk),
		classifier.New(client, cfg.Reasoning),
		cfg.Risk,
	)
	return &env{Store: st, Service: svc}, nil
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}
