package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ruleast/internal/log"
	"github.com/randalmurphal/ruleast/pkg/ruleast/api"
	"github.com/randalmurphal/ruleast/pkg/ruleast/config"
	rerrors "github.com/randalmurphal/ruleast/pkg/ruleast/errors"
	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
)

const (
	serveExamples = `  # Serve with an in-memory store on :8080:
  ruleast serve

  # Serve with settings from a file, overriding the listen address:
  ruleast serve --config ruleast.yaml --addr 127.0.0.1:9090`

	shutdownTimeout = 10 * time.Second
)

type ServeArgs struct {
	*RootArgs

	ConfigPath string
	Addr       string
}

func NewServeArgs(rootArgs *RootArgs) *ServeArgs {
	return &ServeArgs{
		RootArgs: rootArgs,
	}
}

func (sa *ServeArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sa.ConfigPath, "config", "", "Path to the ruleast configuration file")
	cmd.Flags().StringVar(&sa.Addr, "addr", "", "Listen address, overrides server.addr")

	err := cmd.MarkFlagFilename("config", "yaml", "yml", "json")
	if err != nil {
		panic(fmt.Errorf("mark config flag: %w", err))
	}
}

func NewServeCmd(sa *ServeArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the rule HTTP API",
		Example: serveExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := sa.settings()
			if err != nil {
				return err
			}
			logger, err := sa.logger(cmd, settings.Log)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), settings, logger)
		},
	}
	sa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func (sa *ServeArgs) settings() (config.Settings, error) {
	settings, err := config.Load(sa.ConfigPath)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	if sa.Addr != "" {
		settings.Server.Addr = sa.Addr
	}
	return settings, nil
}

// logger replaces the default logger with one built from the config file's
// log settings. The log flags, or their environment variables, take
// precedence over the file.
func (sa *ServeArgs) logger(cmd *cobra.Command, settings config.LogSettings) (*slog.Logger, error) {
	level, format := sa.LogLevel, sa.LogFormat
	if !flagSet(cmd, "log-level") && settings.Level != "" {
		level = settings.Level
	}
	if !flagSet(cmd, "log-format") && settings.Format != "" {
		format = settings.Format
	}

	logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return nil, fmt.Errorf("create log handler: %w", err)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)
	return logger, nil
}

// flagSet reports whether a flag was given on the command line or through
// its environment variable.
func flagSet(cmd *cobra.Command, name string) bool {
	if flag := cmd.Flag(name); flag != nil && flag.Changed {
		return true
	}
	_, ok := os.LookupEnv(flagToEnvName(name))
	return ok
}

// openStore opens the configured backend, retrying while it reports
// itself unavailable.
func openStore(ctx context.Context, settings config.StoreSettings, logger *slog.Logger) (store.Store, error) {
	result := rerrors.WithRetryContext(ctx, rerrors.DefaultRetry, func(ctx context.Context) (store.Store, error) {
		st, err := store.Open(ctx, settings)
		if err != nil {
			logger.Warn("open rule store failed",
				slog.String("driver", settings.Driver),
				slog.String("error", err.Error()),
			)
		}
		return st, err
	})
	if result.Err != nil {
		return nil, fmt.Errorf("open %s store after %d attempt(s): %w", settings.Driver, result.Attempts, result.Err)
	}
	return result.Value, nil
}

// newServer wires the store, service and handler behind an http.Server.
func newServer(settings config.Settings, st store.Store, logger *slog.Logger) *http.Server {
	svcOpts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(settings.Telemetry.Metrics),
		api.WithTracing(settings.Telemetry.Tracing),
		api.WithGroupTerm(settings.Combine.GroupTerm),
	}
	svc := api.NewService(st, svcOpts...)

	handler := api.NewHandler(svc,
		api.WithMaxBodyBytes(settings.Server.MaxBodyBytes),
		api.WithHandlerLogger(logger),
		api.WithAllowedOrigins(settings.Server.CORSOrigins...),
	)

	return &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: settings.Server.ReadTimeout,
		ReadTimeout:       settings.Server.ReadTimeout,
		WriteTimeout:      settings.Server.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}

// serve runs until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, settings config.Settings, logger *slog.Logger) error {
	st, err := openStore(ctx, settings.Store, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("close rule store", slog.String("error", err.Error()))
		}
	}()

	srv := newServer(settings, st, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", srv.Addr),
			slog.String("store", settings.Store.Driver),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
