// Package config loads the server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/azybler/wayfinder/pkg/logging"
	"github.com/azybler/wayfinder/pkg/routing"
)

// Config is the full server configuration.
type Config struct {
	Map     string        `yaml:"map"`
	Server  ServerConfig  `yaml:"server"`
	Routing RoutingConfig `yaml:"routing"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	CORSOrigin    string        `yaml:"cors_origin"`
}

type RoutingConfig struct {
	SnapRadius float64 `yaml:"snap_radius"`
	GridCell   float64 `yaml:"grid_cell"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Map: "map.json",
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			MaxConcurrent: 64,
			CORSOrigin:    "*",
		},
		Routing: RoutingConfig{
			SnapRadius: 50,
			GridCell:   25,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Map == "" {
		errs = append(errs, errors.New("map: must be set"))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: must be set"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server: timeouts must not be negative"))
	}
	if c.Server.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("server.max_concurrent: must be positive, got %d", c.Server.MaxConcurrent))
	}
	if c.Routing.SnapRadius <= 0 {
		errs = append(errs, fmt.Errorf("routing.snap_radius: must be positive, got %g", c.Routing.SnapRadius))
	}
	if c.Routing.GridCell <= 0 {
		errs = append(errs, fmt.Errorf("routing.grid_cell: must be positive, got %g", c.Routing.GridCell))
	}
	if c.Routing.SnapRadius > 0 && c.Routing.GridCell > 0 && c.Routing.SnapRadius/c.Routing.GridCell > routing.MaxSnapReach {
		errs = append(errs, fmt.Errorf("routing.grid_cell: must be at least snap_radius/%d, got %g", routing.MaxSnapReach, c.Routing.GridCell))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}
