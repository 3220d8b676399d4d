/*
Package config provides the configuration of a copse session: where the
passenger data and its metadata live, how it is split, the root rules of
the trees and where those rules are persisted.
*/
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pbanos/copse/feature"
	yaml "gopkg.in/yaml.v2"
)

// Supported rule store backends
const (
	MemoryBackend = "memory"
	RedisBackend  = "redis"
)

// Config is the configuration of a session
type Config struct {
	Metadata string       `yaml:"metadata"`
	Input    string       `yaml:"input"`
	Split    SplitConfig  `yaml:"split"`
	Trees    []RuleConfig `yaml:"trees"`
	Store    StoreConfig  `yaml:"store"`
	Session  string       `yaml:"session"`
}

// SplitConfig configures how the input is split into training and testing data.
// A zero seed shuffles differently on every run.
type SplitConfig struct {
	TrainRatio float64 `yaml:"train_ratio"`
	Seed       int64   `yaml:"seed"`
}

// RuleConfig is the root rule of a tree as a user writes it
type RuleConfig struct {
	Feature  string `yaml:"feature"`
	Operator string `yaml:"operator"`
	Value    string `yaml:"value"`
}

// StoreConfig configures where rules are persisted
type StoreConfig struct {
	Backend string `yaml:"backend"`
	URL     string `yaml:"url"`
	Prefix  string `yaml:"prefix"`
}

// Default returns the configuration used for anything a file does not set.
// Its paths point at the example data shipped under examples/, relative to
// the root of the repository.
func Default() *Config {
	return &Config{
		Metadata: "examples/titanic.yml",
		Input:    "examples/titanic.csv",
		Split:    SplitConfig{TrainRatio: 0.8},
		Store:    StoreConfig{Backend: MemoryBackend, Prefix: "copse"},
	}
}

// Load loads configuration from a YAML file on top of the defaults and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if err = cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("COPSE_METADATA"); v != "" {
		c.Metadata = v
	}
	if v := os.Getenv("COPSE_INPUT"); v != "" {
		c.Input = v
	}
	if v := os.Getenv("COPSE_REDIS_URL"); v != "" {
		c.Store.Backend = RedisBackend
		c.Store.URL = v
	}
	if v := os.Getenv("COPSE_SESSION"); v != "" {
		c.Session = v
	}
	if v := os.Getenv("COPSE_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing COPSE_SEED: %w", err)
		}
		c.Split.Seed = seed
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Metadata == "" {
		return fmt.Errorf("no metadata file configured")
	}
	if c.Split.TrainRatio <= 0 || c.Split.TrainRatio >= 1 {
		return fmt.Errorf("train ratio must be between 0 and 1 (exclusive), got %v", c.Split.TrainRatio)
	}
	if len(c.Trees) > 3 {
		return fmt.Errorf("at most 3 tree rules can be configured, got %d", len(c.Trees))
	}
	switch c.Store.Backend {
	case MemoryBackend:
	case RedisBackend:
		if c.Store.URL == "" {
			return fmt.Errorf("redis store needs a url")
		}
		if c.Session == "" {
			return fmt.Errorf("redis store needs a session to keep rules for")
		}
	default:
		return fmt.Errorf("unknown store backend %q, expected %s or %s", c.Store.Backend, MemoryBackend, RedisBackend)
	}
	return nil
}

// Rules takes the metadata of the input and returns the configured root
// rules, in tree order. Invalid rules are reported with an error wrapping
// feature.ErrInvalidRule.
func (c *Config) Rules(md *feature.Metadata) ([]feature.Rule, error) {
	rules := make([]feature.Rule, 0, len(c.Trees))
	for i, rc := range c.Trees {
		r, err := feature.ParseRule(md, rc.Feature, rc.Operator, rc.Value)
		if err != nil {
			return nil, fmt.Errorf("rule of tree %d: %w", i+1, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}
