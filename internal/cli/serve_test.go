package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ruleast/pkg/ruleast/config"
	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServeArgs_Settings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruleast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
store:
  driver: sqlite
  path: `+filepath.Join(dir, "rules.db")+`
combine:
  group_term: role
`), 0o600))

	sa := NewServeArgs(NewRootArgs())
	sa.ConfigPath = path

	settings, err := sa.settings()
	require.NoError(t, err)
	assert.Equal(t, ":9000", settings.Server.Addr)
	assert.Equal(t, config.DriverSQLite, settings.Store.Driver)
	assert.Equal(t, "role", settings.Combine.GroupTerm)

	sa.Addr = "127.0.0.1:0"
	settings, err = sa.settings()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", settings.Server.Addr)

	sa.ConfigPath = filepath.Join(dir, "missing.yaml")
	_, err = sa.settings()
	require.Error(t, err)
}

func TestServeArgs_Logger(t *testing.T) {
	fromFile := config.LogSettings{Level: "debug", Format: "json"}

	tests := []struct {
		name      string
		args      []string
		env       string
		settings  config.LogSettings
		wantDebug bool
		wantJSON  bool
	}{
		{name: "file settings apply", settings: fromFile, wantDebug: true, wantJSON: true},
		{name: "level flag wins", args: []string{"--log-level", "warn"}, settings: fromFile, wantJSON: true},
		{name: "format flag wins", args: []string{"--log-format", "logfmt"}, settings: fromFile, wantDebug: true},
		{name: "level env wins", env: "error", settings: fromFile, wantJSON: true},
		{name: "defaults without file settings", settings: config.LogSettings{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("RULEAST_LOG_LEVEL", tt.env)
			}
			t.Cleanup(func() { slog.SetDefault(discardLogger()) })

			ra := NewRootArgs()
			cmd := &cobra.Command{Use: "serve"}
			ra.AddFlags(cmd)
			bindEnvVars(cmd)
			require.NoError(t, cmd.ParseFlags(tt.args))

			var buf bytes.Buffer
			cmd.SetErr(&buf)

			logger, err := NewServeArgs(ra).logger(cmd, tt.settings)
			require.NoError(t, err)
			logger.Debug("debug line")
			logger.Error("error line")

			out := buf.String()
			assert.Contains(t, out, "error line")
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"), out)
			assert.Equal(t, tt.wantJSON, strings.HasPrefix(out, "{"), out)
		})
	}

	t.Run("invalid file level", func(t *testing.T) {
		ra := NewRootArgs()
		cmd := &cobra.Command{Use: "serve"}
		ra.AddFlags(cmd)
		require.NoError(t, cmd.ParseFlags(nil))

		_, err := NewServeArgs(ra).logger(cmd, config.LogSettings{Level: "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create log handler")
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, config.StoreSettings{Driver: config.DriverMemory}, discardLogger())
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = openStore(ctx, config.StoreSettings{Driver: "etcd"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 1 attempt(s)")
}

func TestNewServer(t *testing.T) {
	settings := config.Default()
	settings.Combine.GroupTerm = "role"
	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	srv := newServer(settings, st, discardLogger())
	assert.Equal(t, settings.Server.Addr, srv.Addr)
	assert.Equal(t, settings.Server.ReadTimeout, srv.ReadTimeout)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/combineRules", "application/json",
		strings.NewReader(`{"rules": ["role = 'admin'", "age > 30", "role = 'owner'"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		RuleID string `json:"rule_id"`
		AST    struct {
			Value string `json:"value"`
			Left  struct {
				Value string `json:"value"`
			} `json:"left"`
		} `json:"ast"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "AND", body.AST.Value)
	assert.Equal(t, "OR", body.AST.Left.Value, "the configured group term is used")
	infos, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	settings := config.Default()
	settings.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, settings, discardLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	settings := config.Default()
	settings.Server.Addr = "256.0.0.1:bad"

	err := serve(context.Background(), settings, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}
