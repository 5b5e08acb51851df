package main

import (
	"context"
	"errors"

	"github.com/TheChilliPL/docker-io-reporter/config"
	"github.com/TheChilliPL/docker-io-reporter/internal/docker"
	"github.com/TheChilliPL/docker-io-reporter/internal/logging"
	"github.com/TheChilliPL/docker-io-reporter/internal/sink"
	"github.com/TheChilliPL/docker-io-reporter/internal/stats"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newSaveCmd(flags *globalFlags) *cobra.Command {
	var atomic bool

	cmd := &cobra.Command{
		Use:   "save [path]",
		Short: "Save current stats to a file or standard output",
		Long: `Save current stats to a file or standard output.

Without a path the metrics are written to standard output. With --atomic
they are first written to "<path>.atomic" and then renamed over path.

Example:
  docker-io-reporter save
  docker-io-reporter save --atomic /var/lib/node_exporter/textfile/docker_io.prom`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			if atomic && path == "" {
				return sink.ErrAtomicWithoutPath
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			return runSave(cmd.Context(), cfg, path, atomic)
		},
	}

	cmd.Flags().BoolVarP(&atomic, "atomic", "a", false, "Write to a temp file and atomically rename it over path (requires path)")

	return cmd
}

// runSave performs a single collection and hands it to the sink. Extra
// options are appended to the application graph.
func runSave(ctx context.Context, cfg *config.Config, path string, atomic bool, opts ...fx.Option) (err error) {
	var (
		statsService *stats.Service
		logger       *logging.Logger
	)

	app := fx.New(
		config.Module(cfg),
		logging.Module("stderr"),
		docker.Module,
		stats.Module,
		fx.Populate(&statsService, &logger),
		fx.Options(opts...),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		err = errors.Join(err, app.Stop(stopCtx))
	}()

	out, err := sink.New(path, atomic, logger.With(zap.String("component", "sink")))
	if err != nil {
		return err
	}

	buf, err := statsService.Collect(ctx)
	if err != nil {
		return err
	}

	return out.Write(buf.Bytes())
}
