package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vhostlog/internal/types"
)

const (
	DefaultPrefix   = "/home/httpd"
	DefaultListen   = ":9090"
	DefaultDirMode  = 0755
	DefaultFileMode = 0644
)

// LoadConfig reads the configuration from the given path
func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg types.Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *types.Config {
	var cfg types.Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills in unset values
func ApplyDefaults(cfg *types.Config) {
	if cfg.Routing.Prefix == "" {
		cfg.Routing.Prefix = DefaultPrefix
	}
	if cfg.Routing.Workers < 1 {
		cfg.Routing.Workers = 1
	}
	if cfg.Output.DirMode == 0 {
		cfg.Output.DirMode = DefaultDirMode
	}
	if cfg.Output.FileMode == 0 {
		cfg.Output.FileMode = DefaultFileMode
	}
	if cfg.Dashboard.Listen == "" {
		cfg.Dashboard.Listen = DefaultListen
	}
}

// ParseSuffix turns the optional suffix argument into the month directory
// suffix: the leading run of lowercase ASCII letters prefixed with '.', or
// the empty string when there is no such run.
func ParseSuffix(arg string) string {
	n := 0
	for n < len(arg) && arg[n] >= 'a' && arg[n] <= 'z' {
		n++
	}
	if n == 0 {
		return ""
	}
	return "." + arg[:n]
}
