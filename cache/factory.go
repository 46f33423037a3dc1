package cache

import (
	"fmt"

	"noodle_backend/core"
	"noodle_backend/logging"

	"go.uber.org/zap"
)

// NewIndex constructs the Index backend selected by the config.
//
// Backends:
//   - "sqlite": durable single-file index (the default)
//   - "redis":  shared index for multi-instance deployments
//   - "memory": process-local, for development and tests
func NewIndex(cfg *core.Config, logger *logging.Logger) (Index, error) {
	switch cfg.CacheBackend {
	case "sqlite":
		sqliteCfg := DefaultSQLiteConfig(cfg.SQLitePath)
		if cfg.MigrationsPath != "" {
			sqliteCfg.MigrationsPath = cfg.MigrationsPath
		}
		index, err := NewSQLiteIndex(sqliteCfg)
		if err != nil {
			return nil, err
		}
		logger.Info("cache index ready",
			zap.String("backend", "sqlite"),
			zap.String("path", cfg.SQLitePath))
		return index, nil

	case "redis":
		index := NewRedisIndex(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisKeyPrefix,
		})
		logger.Info("cache index ready",
			zap.String("backend", "redis"),
			zap.String("addr", cfg.RedisAddr),
			zap.String("prefix", cfg.RedisKeyPrefix))
		return index, nil

	case "memory":
		logger.Warn("using in-memory cache index; entries are lost on restart",
			zap.String("backend", "memory"))
		return NewMemoryIndex(), nil

	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.CacheBackend)
	}
}
