// Package backend builds storage adapters from configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/vvka-141/fscat/internal/backend/iofs"
	"github.com/vvka-141/fscat/internal/backend/local"
	"github.com/vvka-141/fscat/internal/backend/memory"
	"github.com/vvka-141/fscat/internal/backend/pgstore"
	"github.com/vvka-141/fscat/internal/backend/s3"
	"github.com/vvka-141/fscat/internal/config"
	"github.com/vvka-141/fscat/pkg/fscat"
)

// New creates the backend described by cfg.
func New(ctx context.Context, cfg config.BackendConfig, logger fscat.Logger) (fscat.Backend, error) {
	defaults, err := cfg.Defaults()
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case config.TypeLocal:
		b, err := local.New(local.Config{
			Root:        cfg.Root,
			BlockSize:   cfg.BlockSize,
			Replication: cfg.Replication,
		})
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.TypeMemory:
		umask, err := cfg.UmaskMode()
		if err != nil {
			return nil, err
		}
		mc := memory.DefaultConfig()
		mc.Owner = cfg.Owner
		mc.Umask = umask
		if cfg.Group != "" {
			mc.Group = cfg.Group
		}
		if cfg.BlockSize != 0 {
			mc.BlockSize = cfg.BlockSize
		}
		if cfg.Replication != 0 {
			mc.Replication = cfg.Replication
		}
		return memory.New(mc), nil

	case config.TypeDirFS:
		b, err := iofs.NewDir(cfg.Root, defaults)
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.TypeS3:
		b, err := s3.New(ctx, s3.Config{
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
			UsePathStyle:    cfg.UsePathStyle,
			Retry:           cfg.Retry,
			Defaults:        defaults,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil

	case config.TypePgStore:
		b, err := pgstore.New(ctx, pgstore.Config{
			DSN:      cfg.DSN,
			MaxConns: cfg.MaxConns,
			Owner:    cfg.Owner,
			Migrate:  cfg.Migrate,
			Retry:    cfg.Retry,
			Defaults: defaults,
		}, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	return nil, fmt.Errorf("%w: unknown backend type %q", fscat.ErrInvalidConfig, cfg.Type)
}

// NewAll creates every backend in cfg, keyed by scheme. On failure the
// backends already created are closed.
func NewAll(ctx context.Context, cfg *config.Config, logger fscat.Logger) (map[string]fscat.Backend, error) {
	backends := make(map[string]fscat.Backend, len(cfg.Backends))
	for _, scheme := range cfg.Schemes() {
		b, err := New(ctx, cfg.Backends[scheme], logger)
		if err != nil {
			for _, created := range backends {
				created.Close() //nolint:errcheck
			}
			return nil, fmt.Errorf("backend %q: %w", scheme, err)
		}
		backends[scheme] = b
	}
	return backends, nil
}
