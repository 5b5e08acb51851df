package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TheChilliPL/docker-io-reporter/config"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

var ErrNoName = errors.New("container has no name")

type Client struct {
	cli *client.Client
}

func NewClient(cfg *config.Config) (*Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.DockerHost != "" {
		opts = append(opts, client.WithHost(cfg.DockerHost))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Client{
		cli: cli,
	}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// ListContainers returns the containers reported by the engine with its
// default listing options.
func (c *Client) ListContainers(ctx context.Context) ([]container.Summary, error) {
	containers, err := c.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return containers, nil
}

// ContainerPID returns the pid of the container's root process. A container
// that is not running has no pid and yields an error.
func (c *Client) ContainerPID(ctx context.Context, name string) (int, error) {
	info, err := c.cli.ContainerInspect(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	if info.ContainerJSONBase == nil || info.State == nil {
		return 0, fmt.Errorf("container %s has no state", name)
	}
	if info.State.Pid == 0 {
		return 0, fmt.Errorf("container %s has no pid", name)
	}

	return info.State.Pid, nil
}

// ContainerName returns the display name of a container: its first listed
// name without the leading "/".
func ContainerName(summary container.Summary) (string, error) {
	if len(summary.Names) == 0 {
		return "", ErrNoName
	}

	name := strings.TrimPrefix(summary.Names[0], "/")
	if name == "" {
		return "", ErrNoName
	}

	return name, nil
}
