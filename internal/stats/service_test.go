package stats

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/TheChilliPL/docker-io-reporter/internal/cgroup"
	"github.com/TheChilliPL/docker-io-reporter/internal/device"
	"github.com/TheChilliPL/docker-io-reporter/internal/exposition"
	"github.com/TheChilliPL/docker-io-reporter/internal/hostfs"
	"github.com/TheChilliPL/docker-io-reporter/internal/logging"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRuntime struct {
	containers []container.Summary
	pids       map[string]int
	listErr    error
}

func (r *fakeRuntime) ListContainers(ctx context.Context) ([]container.Summary, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.containers, nil
}

func (r *fakeRuntime) ContainerPID(ctx context.Context, name string) (int, error) {
	pid, ok := r.pids[name]
	if !ok {
		return 0, fmt.Errorf("no such container: %s", name)
	}
	return pid, nil
}

type hostTree struct {
	t          *testing.T
	procRoot   string
	cgroupRoot string
	deviceRoot string
	runtime    *fakeRuntime
}

func newHostTree(t *testing.T) *hostTree {
	t.Helper()

	root := t.TempDir()
	h := &hostTree{
		t:          t,
		procRoot:   filepath.Join(root, "proc"),
		cgroupRoot: filepath.Join(root, "sys/fs/cgroup"),
		deviceRoot: filepath.Join(root, "sys/dev/block"),
		runtime:    &fakeRuntime{pids: make(map[string]int)},
	}
	for _, dir := range []string{h.procRoot, h.cgroupRoot, h.deviceRoot} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	return h
}

func (h *hostTree) addDevice(majorMinor, name string) {
	h.t.Helper()
	target := "../../devices/virtual/block/" + name
	require.NoError(h.t, os.Symlink(target, filepath.Join(h.deviceRoot, majorMinor)))
}

func (h *hostTree) write(path, content string) {
	h.t.Helper()
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
}

// addContainer registers a running container whose cgroup holds the given
// io.stat and io.pressure content. An empty procCgroup defaults to a
// unified-hierarchy entry.
func (h *hostTree) addContainer(name string, pid int, procCgroup, ioStat, ioPressure string) {
	h.t.Helper()

	h.runtime.containers = append(h.runtime.containers, container.Summary{
		ID:    "id-" + name,
		Names: []string{"/" + name},
	})
	h.runtime.pids[name] = pid

	rel := "system.slice/docker-" + name + ".scope"
	if procCgroup == "" {
		procCgroup = "0::/" + rel + "\n"
	}
	h.write(filepath.Join(h.procRoot, strconv.Itoa(pid), "cgroup"), procCgroup)
	h.write(filepath.Join(h.cgroupRoot, rel, cgroup.IOStatFile), ioStat)
	h.write(filepath.Join(h.cgroupRoot, rel, cgroup.IOPressureFile), ioPressure)
}

func (h *hostTree) service(logger *logging.Logger) *Service {
	fs := hostfs.OS{}
	formatter := exposition.NewFormatter(device.NewResolver(h.deviceRoot, fs))
	inspector := NewInspector(h.runtime, fs, formatter, h.procRoot, h.cgroupRoot, logger)
	return NewService(h.runtime, inspector, logger)
}

func observedLogger() (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logging.NewFromZap(zap.New(core)), logs
}

const pressureAll = "some avg10=0.00 avg60=0.00 avg300=0.00 total=0\nfull avg10=0.00 avg60=0.00 avg300=0.00 total=0\n"

func TestCollect_EndToEnd(t *testing.T) {
	h := newHostTree(t)
	h.addDevice("254:0", "sda")
	h.addContainer("web", 100, "", "254:0 rbytes=1024 wbytes=0\n", "")
	h.addContainer("db", 200, "", "", "some avg10=0.00 avg60=0.00 total=0\n")

	buf, err := h.service(logging.NewNop()).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		"docker_iostat_rbytes{device=\"sda\",container=\"web\"} 1024\n"+
			"docker_iostat_wbytes{device=\"sda\",container=\"web\"} 0\n"+
			"docker_iopressure_avg10{type=\"some\",container=\"db\"} 0.00\n"+
			"docker_iopressure_avg60{type=\"some\",container=\"db\"} 0.00\n"+
			"docker_iopressure_total{type=\"some\",container=\"db\"} 0\n",
		buf.String())
}

func TestCollect_IsolatesFailingContainer(t *testing.T) {
	h := newHostTree(t)
	h.addDevice("8:0", "sda")
	h.addContainer("first", 10, "", "8:0 rbytes=1\n", pressureAll)
	h.addContainer("second", 20, "", "8:0 rbytes=2\n", pressureAll)
	h.addContainer("third", 30, "", "8:0 rbytes=3\n", pressureAll)
	delete(h.runtime.pids, "second")

	logger, logs := observedLogger()
	buf, err := h.service(logger).Collect(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `container="first"`)
	assert.NotContains(t, out, `container="second"`)
	assert.Contains(t, out, `container="third"`)

	errorsLogged := logs.FilterMessage("Error processing container").All()
	require.Len(t, errorsLogged, 1)
	assert.Equal(t, "second", errorsLogged[0].ContextMap()["container"])
}

func TestCollect_SkipsUnnamedContainers(t *testing.T) {
	h := newHostTree(t)
	h.addDevice("8:0", "sda")
	h.addContainer("named", 10, "", "8:0 rbytes=1\n", "")
	h.runtime.containers = append(h.runtime.containers,
		container.Summary{ID: "anon"},
		container.Summary{ID: "quoted", Names: []string{`/bad"name`}},
	)

	logger, logs := observedLogger()
	buf, err := h.service(logger).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, buf.Lines())
	assert.Empty(t, logs.FilterMessage("Error processing container").All())
	assert.Len(t, logs.FilterMessage("Skipping container without usable name").All(), 2)
}

func TestCollect_EnumerationFailure(t *testing.T) {
	h := newHostTree(t)
	h.runtime.listErr = errors.New("cannot connect to the Docker daemon")

	buf, err := h.service(logging.NewNop()).Collect(context.Background())
	require.ErrorIs(t, err, ErrEnumeration)
	assert.Nil(t, buf)
}

func TestCollect_NoContainers(t *testing.T) {
	h := newHostTree(t)

	buf, err := h.service(logging.NewNop()).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Lines())
	assert.Empty(t, buf.Bytes())
}

func TestCollect_CgroupV1ExcludedOthersUnaffected(t *testing.T) {
	h := newHostTree(t)
	h.addDevice("8:0", "sda")
	h.addContainer("legacy", 10, "12:blkio:/docker/legacy\n", "8:0 rbytes=1\n", "")
	h.addContainer("modern", 20, "", "8:0 rbytes=2\n", "")

	buf, err := h.service(logging.NewNop()).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "docker_iostat_rbytes{device=\"sda\",container=\"modern\"} 2\n", buf.String())
}

func TestCollectContainer_Errors(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(h *hostTree)
		expect error
	}{
		{
			name:   "unknown container",
			setup:  func(h *hostTree) {},
			expect: ErrInspection,
		},
		{
			name: "zero pid",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "", "", "")
				h.runtime.pids["app"] = 0
			},
			expect: ErrInspection,
		},
		{
			name: "missing proc cgroup",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "", "", "")
				require.NoError(h.t, os.Remove(filepath.Join(h.procRoot, "10", "cgroup")))
			},
			expect: ErrCgroupRead,
		},
		{
			name: "cgroup v1",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "4:blkio:/docker/app\n", "", "")
			},
			expect: cgroup.ErrUnsupportedVersion,
		},
		{
			name: "cgroup path escapes root",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "0::/../../etc\n", "", "")
			},
			expect: ErrCgroupRead,
		},
		{
			name: "missing io.pressure",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "", "", "")
				require.NoError(h.t, os.Remove(filepath.Join(h.cgroupRoot, "system.slice/docker-app.scope", cgroup.IOPressureFile)))
			},
			expect: ErrStatFileRead,
		},
		{
			name: "malformed io.stat",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "", "8:0 rbytes\n", "")
			},
			expect: cgroup.ErrMalformedLine,
		},
		{
			name: "malformed io.pressure",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "", "", "some avg10=0.00\n\n")
			},
			expect: cgroup.ErrMalformedLine,
		},
		{
			name: "unknown device",
			setup: func(h *hostTree) {
				h.addContainer("app", 10, "", "9:9 rbytes=1\n", "")
			},
			expect: device.ErrResolution,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHostTree(t)
			tc.setup(h)

			svc := h.service(logging.NewNop())
			buf, err := svc.inspector.CollectContainer(context.Background(), "app")
			require.ErrorIs(t, err, tc.expect)
			assert.Nil(t, buf)
		})
	}
}

func TestCollectContainer_PartialFailureEmitsNothing(t *testing.T) {
	h := newHostTree(t)
	h.addDevice("8:0", "sda")
	h.addContainer("app", 10, "", "8:0 rbytes=1 wbytes=2\n7:7 rbytes=3\n", pressureAll)
	h.addContainer("other", 11, "", "8:0 rbytes=4\n", "")

	buf, err := h.service(logging.NewNop()).Collect(context.Background())
	require.NoError(t, err)

	assert.False(t, strings.Contains(buf.String(), `container="app"`))
	assert.Equal(t, 1, buf.Lines())
}

func TestCollect_FreshBufferPerCycle(t *testing.T) {
	h := newHostTree(t)
	h.addDevice("8:0", "sda")
	h.addContainer("app", 10, "", "8:0 rbytes=1\n", "")
	svc := h.service(logging.NewNop())

	first, err := svc.Collect(context.Background())
	require.NoError(t, err)
	second, err := svc.Collect(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, 1, second.Lines())
}
