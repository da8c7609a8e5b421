/*
Package config loads the rule service configuration.

# Overview

Config wraps a map[string]any decoded from YAML or JSON and provides typed
accessors that return defaults for missing keys or mismatched types. Keys
are dotted paths into nested sections:

	cfg, err := config.FromFile("ruleast.yaml")
	addr := cfg.String("server.addr", ":8080")
	timeout := cfg.Duration("store.redis.timeout", 200*time.Millisecond)

Settings is the typed view the service starts from. Load reads a file,
overlays it on Default() and validates the result:

	settings, err := config.Load("ruleast.yaml")

# File Format

	server:
	  addr: ":8080"
	  read_timeout: 10s
	  write_timeout: 10s
	  max_body_bytes: 1048576
	  cors_origins: ["https://rules.example.com"]
	store:
	  driver: sqlite        # memory | sqlite | redis
	  path: ./rules.db
	  redis:
	    addr: localhost:6379
	    db: 0
	    key_prefix: "ruleast:"
	    timeout: 200ms
	log:
	  level: info           # debug | info | warn | error
	  format: text          # text | logfmt | json
	telemetry:
	  metrics: true
	  tracing: false
	combine:
	  group_term: department

Durations accept Go duration strings or a number of seconds.

# Thread Safety

Config and Settings are safe for concurrent read access.
*/
package config
