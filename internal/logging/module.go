package logging

import (
	"context"

	"github.com/TheChilliPL/docker-io-reporter/config"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// Module provides a Logger writing to output. The save command logs to
// stderr so that stdout carries only metrics.
func Module(output string) fx.Option {
	return fx.Options(
		fx.Provide(func(cfg *config.Config) (*Logger, error) {
			return NewLogger(cfg.LogLevel, output)
		}),
		fx.WithLogger(func(logger *Logger) fxevent.Logger {
			fxLogger := &fxevent.ZapLogger{Logger: logger.GetZap()}
			fxLogger.UseLogLevel(zapcore.DebugLevel)
			return fxLogger
		}),
		fx.Invoke(RegisterLoggerShutdown),
	)
}

func RegisterLoggerShutdown(lc fx.Lifecycle, logger *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
}
