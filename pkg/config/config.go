package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the worker's process configuration. Policy the dashboard
// owns (schedules, expiry threshold) is deliberately not here; it lives in
// cluster configmaps and is re-read every tick.
type Config struct {
	// Namespace is the cluster namespace holding all workspace resources.
	Namespace string `yaml:"namespace"`

	// Kubeconfig is the path to a kubeconfig file. Empty means in-cluster.
	Kubeconfig string `yaml:"kubeconfig"`

	// ListenAddr is the health/metrics HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	Intervals Intervals `yaml:"intervals"`
}

// Intervals are the per-loop tick intervals.
type Intervals struct {
	Schedule time.Duration `yaml:"schedule"`
	Expiry   time.Duration `yaml:"expiry"`
	Creation time.Duration `yaml:"creation"`
	Cleanup  time.Duration `yaml:"cleanup"`
}

// UnmarshalYAML decodes intervals from duration strings like "90s" or "5m".
// Omitted fields keep whatever value they already hold.
func (i *Intervals) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Schedule string `yaml:"schedule"`
		Expiry   string `yaml:"expiry"`
		Creation string `yaml:"creation"`
		Cleanup  string `yaml:"cleanup"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	for _, field := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"schedule", raw.Schedule, &i.Schedule},
		{"expiry", raw.Expiry, &i.Expiry},
		{"creation", raw.Creation, &i.Creation},
		{"cleanup", raw.Cleanup, &i.Cleanup},
	} {
		if field.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(field.raw)
		if err != nil {
			return fmt.Errorf("interval %s: %w", field.name, err)
		}
		*field.dst = parsed
	}
	return nil
}

// Default returns the worker's default configuration.
func Default() Config {
	return Config{
		Namespace:  "workspaces",
		ListenAddr: ":9090",
		LogLevel:   "info",
		Intervals: Intervals{
			Schedule: 60 * time.Second,
			Expiry:   60 * time.Second,
			Creation: 3 * time.Second,
			Cleanup:  300 * time.Second,
		},
	}
}

// Load reads a yaml config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the worker cannot run with.
func (c Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace must not be empty")
	}
	for name, interval := range map[string]time.Duration{
		"schedule": c.Intervals.Schedule,
		"expiry":   c.Intervals.Expiry,
		"creation": c.Intervals.Creation,
		"cleanup":  c.Intervals.Cleanup,
	} {
		if interval <= 0 {
			return fmt.Errorf("interval %s must be positive", name)
		}
	}
	return nil
}
