package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentry-dev/agentry/internal/adapters/file"
	"github.com/agentry-dev/agentry/internal/adapters/memory"
	"github.com/agentry-dev/agentry/internal/config"
	"github.com/agentry-dev/agentry/pkg/adapters/redis"
	"github.com/agentry-dev/agentry/pkg/persistence/middleware"
	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/agentry-dev/agentry/pkg/providers"
	"github.com/agentry-dev/agentry/pkg/session"
)

// newResponder builds the LLM backend selected by the config.
func newResponder(cfg config.ProviderConfig) (ports.Responder, error) {
	return providers.New(cfg.Kind, providers.Settings{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey(),
		Model:   cfg.Model,
	})
}

// newSessionManager builds the run store selected by the config. The redis
// backend also gets a distributed lock so multiple replicas can share it.
func newSessionManager(cfg config.StoreConfig, opts ...session.Option) (*session.Manager, error) {
	var store ports.RunStore
	switch cfg.Backend {
	case "", "memory":
		store = memory.NewStore()
	case "file":
		store = file.NewStore(cfg.Path)
	case "redis":
		var storeOpts []redis.Option
		if cfg.TTLSeconds > 0 {
			storeOpts = append(storeOpts, redis.WithTTL(time.Duration(cfg.TTLSeconds)*time.Second))
		}
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Addr})
		store = redis.NewFromClient(rdb, storeOpts...)
		opts = append(opts, session.WithLocker(redis.NewLocker(rdb, "agentry:lock:")))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}
	if cfg.EncryptionKeyEnv != "" {
		key, err := base64.StdEncoding.DecodeString(os.Getenv(cfg.EncryptionKeyEnv))
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key in %s: %w", cfg.EncryptionKeyEnv, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key in %s must be 32 bytes, got %d", cfg.EncryptionKeyEnv, len(key))
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	store = middleware.Chain(store, mws...)

	return session.NewManager(store, opts...), nil
}
