package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/aretw0/taproot/pkg/adapters/file"
	loamstore "github.com/aretw0/taproot/pkg/adapters/loam"
	"github.com/aretw0/taproot/pkg/adapters/memory"
	"github.com/aretw0/taproot/pkg/adapters/postgres"
	redisstore "github.com/aretw0/taproot/pkg/adapters/redis"
	"github.com/aretw0/taproot/pkg/persistence/middleware"
	"github.com/aretw0/taproot/pkg/ports"
)

// BuildStore constructs the configured snapshot store, wrapped in the
// configured middleware. The returned cleanup releases any connections; it
// is non-nil even when there is nothing to release. A nil store (with nil
// error) means persistence is disabled.
func BuildStore(ctx context.Context, cfg Config, logger *slog.Logger) (ports.SnapshotStore, func(), error) {
	store, cleanup, err := buildBaseStore(ctx, cfg.Store)
	if err != nil || store == nil {
		return store, cleanup, err
	}

	var chain []middleware.Middleware
	if len(cfg.PII) > 0 {
		chain = append(chain, middleware.NewPIIMiddleware(cfg.PII))
	}
	if cfg.Encryption.Key != "" {
		enc, err := decodeEncryption(cfg.Encryption)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		chain = append(chain, middleware.NewEncryptionMiddleware(enc))
	}
	if len(chain) > 0 {
		logger.Debug("store middleware enabled", "pii", len(cfg.PII) > 0, "encryption", cfg.Encryption.Key != "")
		store = middleware.Chain(chain...)(store)
	}

	return store, cleanup, nil
}

func buildBaseStore(ctx context.Context, cfg StoreConfig) (ports.SnapshotStore, func(), error) {
	nop := func() {}

	switch cfg.Type {
	case "", "none":
		return nil, nop, nil

	case "file":
		if cfg.Path == "" {
			return nil, nop, fmt.Errorf("file store requires a path")
		}
		return file.New(cfg.Path), nop, nil

	case "memory":
		return memory.NewStore(), nop, nil

	case "redis":
		if cfg.Redis.Address == "" {
			return nil, nop, fmt.Errorf("redis store requires an address")
		}
		var opts []redisstore.Option
		if cfg.Redis.Key != "" {
			opts = append(opts, redisstore.WithKey(cfg.Redis.Key))
		}
		store := redisstore.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, opts...)
		return store, func() { _ = store.Close() }, nil

	case "postgres":
		if cfg.Postgres.DSN == "" {
			return nil, nop, fmt.Errorf("postgres store requires a dsn")
		}
		var opts []postgres.Option
		if cfg.Postgres.Name != "" {
			opts = append(opts, postgres.WithName(cfg.Postgres.Name))
		}
		store, err := postgres.Connect(ctx, cfg.Postgres.DSN, opts...)
		if err != nil {
			return nil, nop, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nop, err
		}
		return store, store.Close, nil

	case "loam":
		if cfg.Path == "" {
			return nil, nop, fmt.Errorf("loam store requires a repository path")
		}
		store, err := loamstore.Init(cfg.Path)
		if err != nil {
			return nil, nop, err
		}
		return store, nop, nil

	default:
		return nil, nop, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

func decodeEncryption(cfg EncryptionConfig) (middleware.EncryptionConfig, error) {
	active, err := hex.DecodeString(cfg.Key)
	if err != nil {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(active) != 32 {
		return middleware.EncryptionConfig{}, fmt.Errorf("encryption key must be 32 bytes, got %d", len(active))
	}

	fallbacks := make([][]byte, 0, len(cfg.Fallbacks))
	for i, f := range cfg.Fallbacks {
		key, err := hex.DecodeString(f)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback key %d is not valid hex: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}

	return middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallbacks}, nil
}
