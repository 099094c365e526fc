// Package config loads and validates experiment configuration.
//
// An experiment is described by a YAML file (see configs/) and may be
// partially overridden from the command line. Only knobs the training
// harness consumes live here; everything numerical belongs to the layers
// and optimizers of the underlying framework.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported names, checked during Validate.
var (
	datasets      = map[string]bool{"mnist": true, "iris": true}
	architectures = map[string]bool{"lenet": true, "mlp": true, "iris-mlp": true}
	optimizers    = map[string]bool{"adam": true, "sgd": true}
)

// Scheduler configures the adaptive learning-rate callback.
type Scheduler struct {
	Factor       float64 `yaml:"factor"`        // multiplier applied on plateau
	Patience     int     `yaml:"patience"`      // epochs without val-loss improvement before reducing
	MinLR        float64 `yaml:"min_lr"`        // floor for the learning rate
	StopPatience int     `yaml:"stop_patience"` // epochs without improvement before stopping (0 = never)
}

// Config captures the runtime knobs for a single experiment.
type Config struct {
	Dataset      string    `yaml:"dataset"`
	Arch         string    `yaml:"arch"`
	DataDir      string    `yaml:"data_dir"`
	MNISTURL     string    `yaml:"mnist_url"` // "" = default mirror
	OutDir       string    `yaml:"out_dir"`
	Epochs       int       `yaml:"epochs"`
	BatchSize    int       `yaml:"batch_size"`
	ValBatchSize int       `yaml:"val_batch_size"`
	ValSplit     float64   `yaml:"val_split"`
	LR           float64   `yaml:"lr"`
	Optimizer    string    `yaml:"optimizer"`
	Momentum     float64   `yaml:"momentum"`
	Seed         int64     `yaml:"seed"`
	MaxSamples   int       `yaml:"max_samples"` // 0 = use the whole dataset
	LogEvery     int       `yaml:"log_every"`
	Checkpoint   bool      `yaml:"checkpoint"`
	Scheduler    Scheduler `yaml:"scheduler"`
}

// Overrides captures CLI supplied values. Zero values leave the config
// untouched.
type Overrides struct {
	Dataset    string
	Arch       string
	DataDir    string
	OutDir     string
	Epochs     int
	BatchSize  int
	LR         float64
	Seed       int64
	MaxSamples int
}

// Default returns a config with the defaults an empty YAML file would get.
func Default() *Config {
	return &Config{
		Dataset:      "mnist",
		Arch:         "lenet",
		DataDir:      "data",
		OutDir:       "out",
		Epochs:       10,
		BatchSize:    32,
		ValBatchSize: 256,
		ValSplit:     0.2,
		LR:           0.001,
		Optimizer:    "adam",
		Momentum:     0.9,
		Seed:         42,
		LogEvery:     1,
		Checkpoint:   true,
		Scheduler: Scheduler{
			Factor:       0.5,
			Patience:     2,
			MinLR:        1e-5,
			StopPatience: 0,
		},
	}
}

// Load reads a Config from YAML, applying defaults for absent keys.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Dataset != "" {
		c.Dataset = o.Dataset
	}
	if o.Arch != "" {
		c.Arch = o.Arch
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.OutDir != "" {
		c.OutDir = o.OutDir
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LR > 0 {
		c.LR = o.LR
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.MaxSamples > 0 {
		c.MaxSamples = o.MaxSamples
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if !datasets[c.Dataset] {
		return fmt.Errorf("unknown dataset %q", c.Dataset)
	}
	if !architectures[c.Arch] {
		return fmt.Errorf("unknown architecture %q", c.Arch)
	}
	if !optimizers[c.Optimizer] {
		return fmt.Errorf("unknown optimizer %q", c.Optimizer)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.ValBatchSize <= 0 {
		c.ValBatchSize = c.BatchSize
	}
	if c.LR <= 0 {
		return fmt.Errorf("lr must be > 0 (got %g)", c.LR)
	}
	if c.ValSplit <= 0 || c.ValSplit >= 1 {
		return fmt.Errorf("val_split must be in (0, 1) (got %g)", c.ValSplit)
	}
	if c.Scheduler.Factor <= 0 || c.Scheduler.Factor >= 1 {
		return fmt.Errorf("scheduler.factor must be in (0, 1) (got %g)", c.Scheduler.Factor)
	}
	if c.Scheduler.Patience <= 0 {
		return fmt.Errorf("scheduler.patience must be > 0 (got %d)", c.Scheduler.Patience)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 1
	}
	return nil
}
