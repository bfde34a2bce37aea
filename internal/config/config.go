// Package config loads engine configuration from YAML with validation and
// defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine's process-level configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Limits  LimitsConfig  `yaml:"limits"`
	Service ServiceConfig `yaml:"service"`

	// ScenarioFile optionally adds custom stress scenarios to the built-in
	// catalog.
	ScenarioFile string `yaml:"scenarioFile,omitempty"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttlSeconds"`

	// RedisAddr switches the cache backend from in-process memory to Redis.
	// Empty means in-memory.
	RedisAddr string `yaml:"redisAddr,omitempty"`
}

type LimitsConfig struct {
	MaxIterations       int     `yaml:"maxIterations"`
	MaxYears            int     `yaml:"maxYears"`
	MaxDebts            int     `yaml:"maxDebts"`
	MaxGoals            int     `yaml:"maxGoals"`
	ComplexityCeiling   int64   `yaml:"complexityCeiling"`
	RateCapacity        int     `yaml:"rateCapacity"`
	RateRefillPerSecond float64 `yaml:"rateRefillPerSecond"`
}

type ServiceConfig struct {
	Workers             int `yaml:"workers"`
	BatchMaxConcurrency int `yaml:"batchMaxConcurrency"`
}

// Default returns the configuration used when no file is supplied. Zeroes
// in limit fields defer to guard.DefaultLimits at wiring time.
func Default() *Config {
	return &Config{
		Cache:   CacheConfig{TTLSeconds: 300},
		Service: ServiceConfig{BatchMaxConcurrency: 8},
	}
}

// Load reads and validates a YAML configuration file, filling unset fields
// from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects nonsensical settings; zero values mean "use default" and
// are accepted.
func (c *Config) Validate() error {
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttlSeconds must be non-negative, got %d", c.Cache.TTLSeconds)
	}
	if c.Limits.MaxIterations < 0 {
		return fmt.Errorf("limits.maxIterations must be non-negative, got %d", c.Limits.MaxIterations)
	}
	if c.Limits.ComplexityCeiling < 0 {
		return fmt.Errorf("limits.complexityCeiling must be non-negative, got %d", c.Limits.ComplexityCeiling)
	}
	if c.Limits.RateRefillPerSecond < 0 {
		return fmt.Errorf("limits.rateRefillPerSecond must be non-negative, got %f", c.Limits.RateRefillPerSecond)
	}
	if c.Service.BatchMaxConcurrency < 0 {
		return fmt.Errorf("service.batchMaxConcurrency must be non-negative, got %d", c.Service.BatchMaxConcurrency)
	}
	if c.ScenarioFile != "" {
		if _, err := os.Stat(c.ScenarioFile); err != nil {
			return fmt.Errorf("scenarioFile %s: %w", c.ScenarioFile, err)
		}
	}
	return nil
}

// CacheTTL returns the configured TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
