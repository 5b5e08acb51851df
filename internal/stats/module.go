package stats

import (
	"github.com/TheChilliPL/docker-io-reporter/config"
	"github.com/TheChilliPL/docker-io-reporter/internal/device"
	"github.com/TheChilliPL/docker-io-reporter/internal/docker"
	"github.com/TheChilliPL/docker-io-reporter/internal/exposition"
	"github.com/TheChilliPL/docker-io-reporter/internal/hostfs"
	"github.com/TheChilliPL/docker-io-reporter/internal/logging"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Provide(NewFileSystem),
	fx.Provide(NewRuntime),
	fx.Provide(NewInspectorFromConfig),
	fx.Provide(NewServiceFromConfig),
	fx.Provide(NewHandler),
)

func NewFileSystem() hostfs.FileSystem {
	return hostfs.OS{}
}

func NewRuntime(client *docker.Client) Runtime {
	return client
}

func NewInspectorFromConfig(cfg *config.Config, runtime Runtime, fs hostfs.FileSystem, logger *logging.Logger) *Inspector {
	formatter := exposition.NewFormatter(device.NewResolver(cfg.DeviceRoot, fs))
	return NewInspector(runtime, fs, formatter, cfg.ProcRoot, cfg.CgroupRoot, logger.With(zap.String("component", "inspector")))
}

func NewServiceFromConfig(cfg *config.Config, runtime Runtime, inspector *Inspector, logger *logging.Logger) *Service {
	logger.Info("Stats service initialized",
		zap.String("proc_root", cfg.ProcRoot),
		zap.String("cgroup_root", cfg.CgroupRoot),
		zap.String("device_root", cfg.DeviceRoot),
	)
	return NewService(runtime, inspector, logger.With(zap.String("component", "stats")))
}
