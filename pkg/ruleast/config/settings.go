package config

import (
	"errors"
	"fmt"
	"time"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// ErrInvalidSettings is wrapped by every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the typed configuration of the rule service.
type Settings struct {
	Server    ServerSettings
	Store     StoreSettings
	Log       LogSettings
	Telemetry TelemetrySettings
	Combine   CombineSettings
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	// CORSOrigins enables CORS for these origins. Empty disables it.
	CORSOrigins []string
}

// StoreSettings selects and configures the rule store backend.
type StoreSettings struct {
	Driver string
	// Path is the SQLite database file.
	Path  string
	Redis RedisSettings
}

// RedisSettings configures the Redis backend.
type RedisSettings struct {
	Addr      string
	DB        int
	Username  string
	Password  string
	KeyPrefix string
	Timeout   time.Duration
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string
	Format string
}

// TelemetrySettings toggles OpenTelemetry instrumentation.
type TelemetrySettings struct {
	Metrics bool
	Tracing bool
}

// CombineSettings configures rule combination.
type CombineSettings struct {
	// GroupTerm is the substring that places a rule in the OR-folded group.
	GroupTerm string
}

// Default returns the settings used when no config file is given.
func Default() Settings {
	return Settings{
		Server: ServerSettings{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Store: StoreSettings{
			Driver: DriverMemory,
			Path:   "ruleast.db",
			Redis: RedisSettings{
				KeyPrefix: "ruleast:",
				Timeout:   200 * time.Millisecond,
			},
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Combine: CombineSettings{
			GroupTerm: "department",
		},
	}
}

// FromConfig overlays values present in cfg onto Default().
func FromConfig(cfg Config) Settings {
	d := Default()
	return Settings{
		Server: ServerSettings{
			Addr:         cfg.String("server.addr", d.Server.Addr),
			ReadTimeout:  cfg.Duration("server.read_timeout", d.Server.ReadTimeout),
			WriteTimeout: cfg.Duration("server.write_timeout", d.Server.WriteTimeout),
			MaxBodyBytes: int64(cfg.Int("server.max_body_bytes", int(d.Server.MaxBodyBytes))),
			CORSOrigins:  cfg.Strings("server.cors_origins", d.Server.CORSOrigins),
		},
		Store: StoreSettings{
			Driver: cfg.String("store.driver", d.Store.Driver),
			Path:   cfg.String("store.path", d.Store.Path),
			Redis: RedisSettings{
				Addr:      cfg.String("store.redis.addr", d.Store.Redis.Addr),
				DB:        cfg.Int("store.redis.db", d.Store.Redis.DB),
				Username:  cfg.String("store.redis.username", d.Store.Redis.Username),
				Password:  cfg.String("store.redis.password", d.Store.Redis.Password),
				KeyPrefix: cfg.String("store.redis.key_prefix", d.Store.Redis.KeyPrefix),
				Timeout:   cfg.Duration("store.redis.timeout", d.Store.Redis.Timeout),
			},
		},
		Log: LogSettings{
			Level:  cfg.String("log.level", d.Log.Level),
			Format: cfg.String("log.format", d.Log.Format),
		},
		Telemetry: TelemetrySettings{
			Metrics: cfg.Bool("telemetry.metrics", d.Telemetry.Metrics),
			Tracing: cfg.Bool("telemetry.tracing", d.Telemetry.Tracing),
		},
		Combine: CombineSettings{
			GroupTerm: cfg.String("combine.group_term", d.Combine.GroupTerm),
		},
	}
}

// Validate reports settings that cannot be used to start the service.
func (s Settings) Validate() error {
	switch s.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the sqlite driver", ErrInvalidSettings)
		}
	case DriverRedis:
		if s.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required for the redis driver", ErrInvalidSettings)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidSettings, s.Store.Driver)
	}

	if s.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: server.max_body_bytes must be positive", ErrInvalidSettings)
	}
	if s.Combine.GroupTerm == "" {
		return fmt.Errorf("%w: combine.group_term must not be empty", ErrInvalidSettings)
	}
	return nil
}
