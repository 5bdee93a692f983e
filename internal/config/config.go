package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	NumClasses   int     `yaml:"num_classes"`
	FeatureDim   int     `yaml:"feature_dim"`
	Lambda       float64 `yaml:"lambda"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	GradStep     float64 `yaml:"grad_step"`
	GradEps      float64 `yaml:"grad_eps"`
	InitStd      float64 `yaml:"init_std"`
	Seed         int64   `yaml:"seed"`

	Shuffle        bool `yaml:"shuffle"`
	StableSoftmax  bool `yaml:"stable_softmax"`
	CheckGradients bool `yaml:"check_gradients"`

	DataDir    string `yaml:"data_dir"`
	Archive    string `yaml:"archive"`
	TrainBatch string `yaml:"train_batch"`
	ValidBatch string `yaml:"valid_batch"`
	TestBatch  string `yaml:"test_batch"`
	MaxSamples int    `yaml:"max_samples"`

	LogEvery    int    `yaml:"log_every"`
	PlotPath    string `yaml:"plot_path"`
	WeightsPath string `yaml:"weights_path"`
}

// Overrides captures CLI supplied values. A nil field was not given on the
// command line and leaves the loaded value alone, so zero and false are
// valid overrides.
type Overrides struct {
	Lambda         *float64
	BatchSize      *int
	LearningRate   *float64
	Epochs         *int
	Seed           *int64
	DataDir        *string
	Archive        *string
	MaxSamples     *int
	LogEvery       *int
	PlotPath       *string
	WeightsPath    *string
	Shuffle        *bool
	StableSoftmax  *bool
	CheckGradients *bool
}

// Default returns the CIFAR-10 settings.
func Default() *Config {
	return &Config{
		NumClasses:   10,
		FeatureDim:   3072,
		Lambda:       1,
		BatchSize:    100,
		LearningRate: 0.01,
		Epochs:       40,
		GradStep:     1e-6,
		GradEps:      1e-6,
		InitStd:      0.01,
		DataDir:      "data/cifar-10-batches-bin",
		TrainBatch:   "data_batch_1.bin",
		ValidBatch:   "data_batch_2.bin",
		TestBatch:    "test_batch.bin",
		LogEvery:     1,
		PlotPath:     "costs.png",
		WeightsPath:  "weights.png",
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML from r on top of Default. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides copies every non-nil override into c.
func (c *Config) ApplyOverrides(o Overrides) {
	set(&c.Lambda, o.Lambda)
	set(&c.BatchSize, o.BatchSize)
	set(&c.LearningRate, o.LearningRate)
	set(&c.Epochs, o.Epochs)
	set(&c.Seed, o.Seed)
	set(&c.DataDir, o.DataDir)
	set(&c.Archive, o.Archive)
	set(&c.MaxSamples, o.MaxSamples)
	set(&c.LogEvery, o.LogEvery)
	set(&c.PlotPath, o.PlotPath)
	set(&c.WeightsPath, o.WeightsPath)
	set(&c.Shuffle, o.Shuffle)
	set(&c.StableSoftmax, o.StableSoftmax)
	set(&c.CheckGradients, o.CheckGradients)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.NumClasses < 2 {
		return fmt.Errorf("num_classes must be >= 2 (got %d)", c.NumClasses)
	}
	if c.NumClasses > 256 {
		return fmt.Errorf("num_classes must fit a label byte (got %d)", c.NumClasses)
	}
	if c.FeatureDim <= 0 {
		return fmt.Errorf("feature_dim must be > 0 (got %d)", c.FeatureDim)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("lambda must be >= 0 (got %g)", c.Lambda)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.GradStep <= 0 {
		return fmt.Errorf("grad_step must be > 0 (got %g)", c.GradStep)
	}
	if c.MaxSamples < 0 {
		return fmt.Errorf("max_samples must be >= 0 (got %d)", c.MaxSamples)
	}
	if c.DataDir == "" && c.Archive == "" {
		return errors.New("one of data_dir or archive must be set")
	}
	if c.TrainBatch == "" || c.ValidBatch == "" || c.TestBatch == "" {
		return errors.New("train_batch, valid_batch and test_batch must all be set")
	}
	if c.GradEps <= 0 {
		c.GradEps = 1e-6
	}
	if c.InitStd <= 0 {
		c.InitStd = 0.01
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 1
	}
	return nil
}
