package chat

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v2"
)

// Config holds the server settings. Zero values are filled in by
// ApplyDefaults, so a partial YAML file or bare flags both work.
type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	OpsAddr        string `yaml:"ops_addr"`
	HistoryLimit   int    `yaml:"history_limit"`
	OutboundBuffer int    `yaml:"outbound_buffer"`
	LogLevel       string `yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":12345",
		OpsAddr:        ":9090",
		HistoryLimit:   100,
		OutboundBuffer: 256,
		LogLevel:       "info",
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty
// path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.OpsAddr == "" {
		c.OpsAddr = def.OpsAddr
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.OutboundBuffer <= 0 {
		c.OutboundBuffer = def.OutboundBuffer
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}
