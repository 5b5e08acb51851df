package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheChilliPL/docker-io-reporter/config"
	"github.com/TheChilliPL/docker-io-reporter/internal/docker"
	"github.com/TheChilliPL/docker-io-reporter/internal/logging"
	"github.com/TheChilliPL/docker-io-reporter/internal/stats"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const version = "0.1.0"

// globalFlags are the flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:     "docker-io-reporter",
		Short:   "Reports container I/O statistics from cgroup v2 in the Prometheus text format",
		Version: version,
		Long: `docker-io-reporter reads io.stat and io.pressure of every Docker container
from the cgroup v2 hierarchy and exposes them as Prometheus metrics.

Commands:
  host   Serve metrics over HTTP, collecting on every request
  save   Write the current metrics to a file or standard output`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML config file (env DOCKER_IO_REPORTER_CONFIG)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (env DOCKER_IO_REPORTER_LOG_LEVEL)")

	root.AddCommand(
		newHostCmd(flags),
		newSaveCmd(flags),
	)

	return root
}

// loadConfig resolves defaults, config file and environment, then applies
// the flags shared by every command.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

func newHostCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "host [ip]",
		Short: "Host a Prometheus-compatible web server",
		Long: `Host a Prometheus-compatible web server.

Every request, on any path, runs a full collection and returns the result.
The bind address defaults to 0.0.0.0 (env DOCKER_IO_REPORTER_IP) and the
port to 9100 (env DOCKER_IO_REPORTER_PORT).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.IP = args[0]
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			app := fx.New(
				config.Module(cfg),
				logging.Module("stdout"),
				docker.Module,
				stats.Module,
				fx.Provide(NewEcho),
				fx.Invoke(RegisterRoutes),
				fx.Invoke(StartServer),
			)
			if err := app.Err(); err != nil {
				return err
			}

			app.Run()
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 9100, "Port on which to start the server")

	return cmd
}

func NewEcho(logger *logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(logging.RequestLoggingMiddleware(logger.With(zap.String("component", "http"))))
	return e
}

// RegisterRoutes sends every request to the metrics handler; the endpoint
// has no routing of its own.
func RegisterRoutes(e *echo.Echo, statsHandler *stats.Handler) {
	e.Any("/", statsHandler.Metrics)
	e.Any("/*", statsHandler.Metrics)
}

func StartServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, e *echo.Echo, cfg *config.Config, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("Listening", zap.String("url", "http://"+cfg.Address()))
				if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
