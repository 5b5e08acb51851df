package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

const envPrefix = "DOCKER_IO_REPORTER_"

type Config struct {
	IP         string `yaml:"ip"`
	Port       int    `yaml:"port"`
	LogLevel   string `yaml:"log_level"`
	DockerHost string `yaml:"docker_host"`
	ProcRoot   string `yaml:"proc_root"`
	CgroupRoot string `yaml:"cgroup_root"`
	DeviceRoot string `yaml:"device_root"`
}

func Default() *Config {
	return &Config{
		IP:         "0.0.0.0",
		Port:       9100,
		LogLevel:   "info",
		ProcRoot:   "/proc",
		CgroupRoot: "/sys/fs/cgroup",
		DeviceRoot: "/sys/dev/block",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. When path is empty the
// DOCKER_IO_REPORTER_CONFIG variable is consulted.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.IP = getEnv(envPrefix+"IP", c.IP)
	c.Port = getEnvInt(envPrefix+"PORT", c.Port)
	c.LogLevel = getEnv(envPrefix+"LOG_LEVEL", c.LogLevel)
	c.DockerHost = getEnv(envPrefix+"DOCKER_HOST", c.DockerHost)
	c.ProcRoot = getEnv(envPrefix+"PROC_ROOT", c.ProcRoot)
	c.CgroupRoot = getEnv(envPrefix+"CGROUP_ROOT", c.CgroupRoot)
	c.DeviceRoot = getEnv(envPrefix+"DEVICE_ROOT", c.DeviceRoot)
}

func (c *Config) Validate() error {
	if net.ParseIP(c.IP) == nil {
		return fmt.Errorf("invalid bind address %q", c.IP)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func Module(cfg *Config) fx.Option {
	return fx.Supply(cfg)
}
