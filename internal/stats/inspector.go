package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/TheChilliPL/docker-io-reporter/internal/cgroup"
	"github.com/TheChilliPL/docker-io-reporter/internal/exposition"
	"github.com/TheChilliPL/docker-io-reporter/internal/hostfs"
	"github.com/TheChilliPL/docker-io-reporter/internal/logging"
	"github.com/TheChilliPL/docker-io-reporter/internal/validation"

	"go.uber.org/zap"
)

// Inspector collects the I/O metrics of a single container.
type Inspector struct {
	runtime    Runtime
	fs         hostfs.FileSystem
	formatter  *exposition.Formatter
	procRoot   string
	cgroupRoot string
	logger     *logging.Logger
}

func NewInspector(runtime Runtime, fs hostfs.FileSystem, formatter *exposition.Formatter, procRoot, cgroupRoot string, logger *logging.Logger) *Inspector {
	return &Inspector{
		runtime:    runtime,
		fs:         fs,
		formatter:  formatter,
		procRoot:   procRoot,
		cgroupRoot: cgroupRoot,
		logger:     logger,
	}
}

// CollectContainer renders io.stat and io.pressure of the named container
// into a fresh buffer. Any failure discards everything rendered so far.
func (i *Inspector) CollectContainer(ctx context.Context, name string) (*exposition.Buffer, error) {
	pid, err := i.runtime.ContainerPID(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInspection, err)
	}
	if pid <= 0 {
		return nil, fmt.Errorf("%w: container %s reported no pid", ErrInspection, name)
	}

	i.logger.Debug("Container state PID", zap.String("container", name), zap.Int("pid", pid))

	procCgroupPath := filepath.Join(i.procRoot, strconv.Itoa(pid), "cgroup")
	procCgroup, err := i.fs.ReadFile(procCgroupPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCgroupRead, err)
	}

	relPath, err := cgroup.ParseUnifiedPath(string(procCgroup))
	if err != nil {
		return nil, err
	}

	cgroupPath, err := validation.SanitizeCgroupPath(i.cgroupRoot, relPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cgroup path %q: %w", ErrCgroupRead, relPath, err)
	}

	i.logger.Debug("Using cgroup path",
		zap.String("container", name),
		zap.String("path", cgroupPath),
	)

	ioStat, err := i.readStatFile(cgroupPath, cgroup.IOStatFile)
	if err != nil {
		return nil, err
	}

	ioPressure, err := i.readStatFile(cgroupPath, cgroup.IOPressureFile)
	if err != nil {
		return nil, err
	}

	statRecords, err := cgroup.ParseIOStat(ioStat)
	if err != nil {
		return nil, err
	}

	pressureRecords, err := cgroup.ParseIOPressure(ioPressure)
	if err != nil {
		return nil, err
	}

	buf := exposition.NewBuffer()
	if err := i.formatter.FormatIOStat(buf, name, statRecords); err != nil {
		return nil, err
	}
	i.formatter.FormatIOPressure(buf, name, pressureRecords)

	return buf, nil
}

func (i *Inspector) readStatFile(cgroupPath, file string) (string, error) {
	path := filepath.Join(cgroupPath, file)

	data, err := i.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStatFileRead, err)
	}

	return string(data), nil
}
