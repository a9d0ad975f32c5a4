package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/coursemarketer/internal/config"
	"github.com/lehigh-university-libraries/coursemarketer/internal/credentials"
	"github.com/lehigh-university-libraries/coursemarketer/internal/gateway"
	"github.com/lehigh-university-libraries/coursemarketer/internal/gemini"
	"github.com/lehigh-university-libraries/coursemarketer/internal/genmedia"
	"github.com/lehigh-university-libraries/coursemarketer/internal/workflow"
)

// app wires configuration, the credential store and the AI gateway
type app struct {
	cfg     *config.Config
	keys    *credentials.Store
	gateway *gateway.Gateway
	closers []func() error
}

func newCredentialStore(ctx context.Context, cfg *config.Config) (*credentials.Store, func() error, error) {
	var (
		persister credentials.Persister
		closer    = func() error { return nil }
	)
	switch cfg.Credentials.Backend {
	case "file":
		persister = credentials.NewFilePersister(cfg.Credentials.Path)
	case "redis":
		rp := credentials.NewRedisPersisterFromURL(cfg.Credentials.RedisURL)
		persister, closer = rp, rp.Close
	case "memory":
	default:
		return nil, nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}

	store, err := credentials.NewStore(ctx, persister, config.EnvAPIKey)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	slog.Debug("Credential store ready", "backend", cfg.Credentials.Backend, "stored", store.HasStored())
	return store, closer, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	keys, closeKeys, err := newCredentialStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []gateway.Option{}
	if cfg.PromptsPath != "" {
		prompts, err := gateway.LoadPrompts(cfg.PromptsPath)
		if err != nil {
			_ = closeKeys()
			return nil, err
		}
		opts = append(opts, gateway.WithPrompts(prompts))
	}

	return &app{
		cfg:     cfg,
		keys:    keys,
		gateway: gateway.New(cfg, gemini.New(), genmedia.New(), keys, opts...),
		closers: []func() error{closeKeys},
	}, nil
}

func (a *app) newMachine() *workflow.Machine {
	return workflow.New(a.gateway)
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
