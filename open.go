package grocerymesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/grocerymesh/config"
	"github.com/hupe1980/grocerymesh/core"
	"github.com/hupe1980/grocerymesh/events"
	"github.com/hupe1980/grocerymesh/model"
	"github.com/hupe1980/grocerymesh/model/anthropic"
	"github.com/hupe1980/grocerymesh/model/openai"
	"github.com/hupe1980/grocerymesh/store/file"
	"github.com/hupe1980/grocerymesh/store/memory"
	"github.com/hupe1980/grocerymesh/store/postgres"
	"github.com/hupe1980/grocerymesh/store/redis"
)

// ErrUnknownBackend is returned for an unsupported store or model name.
var ErrUnknownBackend = errors.New("grocerymesh: unknown backend")

// Open builds a GroceryMesh from cfg: it opens the configured store, model and
// event publisher. optFns run last and may override any of them.
func Open(ctx context.Context, cfg config.Config, optFns ...func(o *Options)) (*GroceryMesh, error) {
	logger := cfg.Logger("grocerymesh")

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	m, err := OpenModel(cfg)
	if err != nil {
		closeAll()
		return nil, err
	}

	var pub events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, conn.Close, p.Close)
		pub = p
		logger.Info("events.connected", "exchange", events.Exchange)
	}

	logger.Info("grocerymesh.open", "store", cfg.Store, "model", cfg.Model, "events", cfg.RabbitMQURL != "")

	fns := append([]func(o *Options){func(o *Options) {
		o.Store = store
		o.Model = m
		o.Publisher = pub
		o.Logger = logger
		o.closers = closers
	}}, optFns...)

	mesh, err := New(ctx, fns...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return mesh, nil
}

// OpenStore opens the BlobStore named by cfg.Store. The returned func
// releases its connections.
func OpenStore(ctx context.Context, cfg config.Config) (core.BlobStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), noop, nil
	case config.StoreFile:
		s, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.StoreRedis:
		s := redis.NewFromAddr(cfg.RedisAddr, func(o *redis.Options) { o.Prefix = cfg.RedisPrefix })
		if err := s.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return s, s.Close, nil
	case config.StorePostgres:
		s, pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { pool.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: store %q", ErrUnknownBackend, cfg.Store)
	}
}

// OpenModel returns the model named by cfg.Model, or nil when none is set.
// API keys come from the providers' usual environment variables.
func OpenModel(cfg config.Config) (model.Model, error) {
	switch cfg.Model {
	case "":
		return nil, nil
	case "openai":
		return openai.NewModel(), nil
	case "anthropic":
		return anthropic.NewModel(), nil
	default:
		return nil, fmt.Errorf("%w: model %q", ErrUnknownBackend, cfg.Model)
	}
}
