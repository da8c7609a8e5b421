package store

import (
	"context"
	"fmt"

	"github.com/randalmurphal/ruleast/pkg/ruleast/config"
)

// Open builds the backend selected by settings.Driver.
// For Redis the connection is verified with a ping before returning.
func Open(ctx context.Context, settings config.StoreSettings) (Store, error) {
	switch settings.Driver {
	case "", config.DriverMemory:
		return NewMemoryStore(), nil

	case config.DriverSQLite:
		return NewSQLiteStore(settings.Path)

	case config.DriverRedis:
		rs, err := NewRedisStore(RedisOptions{
			Addr:      settings.Redis.Addr,
			DB:        settings.Redis.DB,
			Username:  settings.Redis.Username,
			Password:  settings.Redis.Password,
			KeyPrefix: settings.Redis.KeyPrefix,
			Timeout:   settings.Redis.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("ping redis: %w: %w", ErrUnavailable, err)
		}
		return rs, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", settings.Driver)
	}
}
