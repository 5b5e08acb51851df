package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/TheChilliPL/docker-io-reporter/internal/docker"
	"github.com/TheChilliPL/docker-io-reporter/internal/exposition"
	"github.com/TheChilliPL/docker-io-reporter/internal/logging"
	"github.com/TheChilliPL/docker-io-reporter/internal/validation"

	"github.com/docker/docker/api/types/container"
	"go.uber.org/zap"
)

// Runtime is the container engine as seen by the collector.
type Runtime interface {
	ListContainers(ctx context.Context) ([]container.Summary, error)
	ContainerPID(ctx context.Context, name string) (int, error)
}

type Service struct {
	runtime   Runtime
	inspector *Inspector
	logger    *logging.Logger
}

func NewService(runtime Runtime, inspector *Inspector, logger *logging.Logger) *Service {
	return &Service{
		runtime:   runtime,
		inspector: inspector,
		logger:    logger,
	}
}

// Collect runs one full collection cycle. Only a failure to enumerate the
// containers fails the cycle; per-container failures are logged and the
// container is left out of the output.
func (s *Service) Collect(ctx context.Context) (*exposition.Buffer, error) {
	start := time.Now()

	containers, err := s.runtime.ListContainers(ctx)
	if err != nil {
		s.logger.Error("Failed to list containers", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	buf := exposition.NewBuffer()
	var collected, failed, skipped int

	for _, summary := range containers {
		name, err := containerName(summary)
		if err != nil {
			skipped++
			s.logger.Debug("Skipping container without usable name",
				zap.String("id", summary.ID),
				zap.Error(err),
			)
			continue
		}

		s.logger.Debug("Collecting container", zap.String("container", name))

		containerBuf, err := s.inspector.CollectContainer(ctx, name)
		if err != nil {
			failed++
			s.logger.Error("Error processing container",
				zap.String("container", name),
				zap.String("id", summary.ID),
				zap.Error(err),
			)
			continue
		}

		buf.AppendBuffer(containerBuf)
		collected++
	}

	s.logger.Debug("Collection finished",
		zap.Int("containers", len(containers)),
		zap.Int("collected", collected),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
		zap.Int("lines", buf.Lines()),
		zap.Duration("duration", time.Since(start)),
	)

	return buf, nil
}

func containerName(summary container.Summary) (string, error) {
	name, err := docker.ContainerName(summary)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrContainerName, err)
	}

	if err := validation.ValidateLabelValue(name); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrContainerName, name, err)
	}

	return name, nil
}
