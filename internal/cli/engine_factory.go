package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/postgres"
	redisAdapter "github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/sqlite"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Engine bundles a parley engine with the metrics recorded by its hooks.
type Engine struct {
	*parley.Engine
	Metrics *observability.Metrics
}

// NewEngine initializes a parley engine with standard CLI conventions:
// the store comes from the configuration, wrapped with the redaction and
// encryption middlewares, and the engine reports to metrics and the logger.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	persist, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("error opening %s store: %w", cfg.Store.Backend, err)
	}

	store, err := wrapStore(persist.store, cfg.Security)
	if err != nil {
		persist.close()
		return nil, err
	}

	metrics := observability.NewMetrics()
	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithStore(store),
		parley.WithStepBudget(cfg.StepBudget),
		parley.WithLifecycleHooks(metrics.Hooks().Merge(observability.LoggingHooks(logger))),
	}
	if persist.locker != nil {
		opts = append(opts, parley.WithLocker(persist.locker))
	}
	if persist.closer != nil {
		opts = append(opts, parley.WithCloser(persist.closer))
	}

	engine, err := parley.New(cfg.Docs, opts...)
	if err != nil {
		persist.close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("engine ready", "docs", cfg.Docs, "store", cfg.Store.Backend, "step_budget", cfg.StepBudget)
	return &Engine{Engine: engine, Metrics: metrics}, nil
}

type persistence struct {
	store  ports.BlackboardStore
	locker ports.DistributedLocker
	closer io.Closer
}

func (p persistence) close() {
	if p.closer != nil {
		_ = p.closer.Close()
	}
}

// openStore creates the blackboard store named by the configuration.
func openStore(ctx context.Context, cfg config.StoreConfig) (persistence, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return persistence{store: memory.NewStore()}, nil

	case config.BackendFile, "":
		return persistence{store: file.New(cfg.DSN)}, nil

	case config.BackendRedis:
		opts, err := backend.ParseURL(cfg.DSN)
		if err != nil {
			return persistence{}, err
		}
		client := backend.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return persistence{}, err
		}
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = redisAdapter.DefaultPrefix
		}
		p := persistence{
			store:  redisAdapter.NewFromClient(client, redisAdapter.WithPrefix(prefix), redisAdapter.WithTTL(cfg.TTL)),
			closer: client,
		}
		if cfg.Lock {
			p.locker = redisAdapter.NewLocker(client, prefix)
		}
		return p, nil

	case config.BackendSQLite:
		store, err := sqlite.New(ctx, cfg.DSN)
		if err != nil {
			return persistence{}, err
		}
		return persistence{store: store, closer: store}, nil

	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return persistence{}, err
		}
		return persistence{store: store, closer: store}, nil
	}
	return persistence{}, fmt.Errorf("unknown store backend: %q", cfg.Backend)
}

// wrapStore applies PII redaction first and encryption last, so redacted
// values never reach the cipher.
func wrapStore(store ports.BlackboardStore, cfg config.SecurityConfig) (ports.BlackboardStore, error) {
	var mws []middleware.Middleware
	if len(cfg.RedactPatterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.RedactPatterns)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern: %w", err)
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := middleware.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("invalid fallback key: %w", err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}
