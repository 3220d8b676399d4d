package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pbanos/copse/dataset/csv"
	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/feature/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"COPSE_METADATA", "COPSE_INPUT", "COPSE_REDIS_URL", "COPSE_SESSION", "COPSE_SEED"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "copse.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "copse.yml")
	content := `metadata: titanic.yml
input: train.csv
split:
  train_ratio: 0.7
  seed: 42
trees:
  - feature: Sex
    operator: "=="
    value: female
store:
  backend: redis
  url: redis://localhost:6379/0
session: evening
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "train.csv", cfg.Input)
	assert.Equal(t, SplitConfig{TrainRatio: 0.7, Seed: 42}, cfg.Split)
	assert.Equal(t, []RuleConfig{{"Sex", "==", "female"}}, cfg.Trees)
	assert.Equal(t, StoreConfig{Backend: RedisBackend, URL: "redis://localhost:6379/0", Prefix: "copse"}, cfg.Store)
	assert.NoError(t, cfg.Validate())

	require.NoError(t, os.WriteFile(path, []byte("split: [\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COPSE_INPUT", "postgresql://localhost/titanic")
	t.Setenv("COPSE_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("COPSE_SEED", "7")
	t.Setenv("COPSE_SESSION", "abc")

	cfg := Default()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "postgresql://localhost/titanic", cfg.Input)
	assert.Equal(t, RedisBackend, cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/1", cfg.Store.URL)
	assert.Equal(t, int64(7), cfg.Split.Seed)
	assert.Equal(t, "abc", cfg.Session)

	t.Setenv("COPSE_SEED", "seven")
	assert.Error(t, Default().applyEnvOverrides())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no metadata":      func(c *Config) { c.Metadata = "" },
		"ratio too small":  func(c *Config) { c.Split.TrainRatio = 0 },
		"ratio too big":    func(c *Config) { c.Split.TrainRatio = 1 },
		"too many trees":   func(c *Config) { c.Trees = make([]RuleConfig, 4) },
		"unknown backend":  func(c *Config) { c.Store.Backend = "etcd" },
		"redis no url":     func(c *Config) { c.Store.Backend = RedisBackend; c.Session = "abc" },
		"redis no session": func(c *Config) { c.Store.Backend = RedisBackend; c.Store.URL = "redis://localhost" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRules(t *testing.T) {
	md := &feature.Metadata{
		Label: "Survived",
		Features: []feature.Feature{
			feature.NewContinuousFeature("Age"),
			feature.NewDiscreteFeature("Sex", []string{"male", "female"}),
		},
	}
	cfg := Default()
	cfg.Trees = []RuleConfig{{"Sex", "==", "female"}, {"Age", "<", "16"}}
	rules, err := cfg.Rules(md)
	require.NoError(t, err)
	assert.Equal(t, []feature.Rule{
		{Feature: "Sex", Operator: feature.Equal, Threshold: 1},
		{Feature: "Age", Operator: feature.LessThan, Threshold: 16},
	}, rules)

	cfg.Trees = append(cfg.Trees, RuleConfig{"Age", "<", "young"})
	_, err = cfg.Rules(md)
	assert.ErrorIs(t, err, feature.ErrInvalidRule)
}

func TestDefaultsPointAtShippedExamples(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	md, err := yaml.ReadMetadataFromFile(filepath.Join("..", cfg.Metadata))
	require.NoError(t, err)
	ds, err := csv.ReadSetFromFilePath(filepath.Join("..", cfg.Input), md)
	require.NoError(t, err)
	assert.Equal(t, 30, ds.Count())
	require.NoError(t, ds.Validate(md))

	example, err := Load(filepath.Join("..", "examples", "copse.yml"))
	require.NoError(t, err)
	assert.Equal(t, cfg.Metadata, example.Metadata)
	assert.Equal(t, cfg.Input, example.Input)
	_, err = example.Rules(md)
	assert.NoError(t, err)
}
