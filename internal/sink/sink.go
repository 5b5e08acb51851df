package sink

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TheChilliPL/docker-io-reporter/internal/logging"

	"go.uber.org/zap"
)

const AtomicSuffix = ".atomic"

var ErrAtomicWithoutPath = errors.New("atomic save requires a destination path")

// Sink writes one collection result to stdout or to a file. In atomic mode
// the data goes to "<path>.atomic" first and is renamed over path once it
// has been fully written and synced.
type Sink struct {
	path   string
	atomic bool
	stdout io.Writer
	logger *logging.Logger
}

func New(path string, atomic bool, logger *logging.Logger) (*Sink, error) {
	if atomic && path == "" {
		return nil, ErrAtomicWithoutPath
	}

	return &Sink{
		path:   path,
		atomic: atomic,
		stdout: os.Stdout,
		logger: logger,
	}, nil
}

func (s *Sink) Write(data []byte) error {
	if s.path == "" {
		if _, err := s.stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
		return nil
	}

	if !s.atomic {
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.path, err)
		}
		s.logger.Debug("Stats saved", zap.String("path", s.path), zap.Int("size", len(data)))
		return nil
	}

	return s.writeAtomic(data)
}

func (s *Sink) writeAtomic(data []byte) error {
	tempPath := s.path + AtomicSuffix

	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", tempPath, err)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to sync %s: %w", tempPath, err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s to %s: %w", tempPath, s.path, err)
	}

	s.logger.Debug("Stats saved atomically",
		zap.String("path", s.path),
		zap.Int("size", len(data)),
	)

	return nil
}
