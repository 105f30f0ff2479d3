// Package config loads omrscale settings from defaults, a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"omr-scale/internal/binarize"
	"omr-scale/internal/logger"
	"omr-scale/internal/scaler"
)

// EnvPrefix prefixes environment overrides, e.g. OMRSCALE_SCALE_MIN_INTERLINE.
const EnvPrefix = "OMRSCALE"

// Config holds all omrscale settings.
type Config struct {
	Scale        scaler.Params `mapstructure:"scale" yaml:"scale"`
	Binarization Binarization  `mapstructure:"binarization" yaml:"binarization"`
	Log          Log           `mapstructure:"log" yaml:"log"`

	// Sheets processed in parallel by book commands
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// Binarization selects the filter applied to loaded images.
type Binarization struct {
	Filter    string `mapstructure:"filter" yaml:"filter"`
	Threshold int    `mapstructure:"threshold" yaml:"threshold"`
}

// Log configures the default logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Scale: scaler.DefaultParams(),
		Binarization: Binarization{
			Filter:    binarize.KindGlobal.String(),
			Threshold: binarize.DefaultThreshold,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Concurrency: runtime.NumCPU(),
	}
}

// Load reads the configuration. An explicit cfgFile must exist; otherwise
// omrscale.yaml is looked up in the working directory and $HOME/.omrscale.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("omrscale")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.omrscale")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf of DefaultConfig, so that each key
// can be overridden from the environment.
func setDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to unmarshal defaults: %w", err)
	}
	setLeaves(v, "", tree)
	return nil
}

func setLeaves(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setLeaves(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Scale.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scale: %w", err))
	}
	if _, err := c.Filter(); err != nil {
		errs = append(errs, fmt.Errorf("binarization: %w", err))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	return errors.Join(errs...)
}

// Filter returns the configured binarization filter.
func (c *Config) Filter() (binarize.Filter, error) {
	kind, err := binarize.ParseKind(c.Binarization.Filter)
	if err != nil {
		return nil, err
	}
	return binarize.New(kind, c.Binarization.Threshold)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# omrscale configuration
# Every key can be overridden from the environment, e.g.
#   OMRSCALE_SCALE_MIN_INTERLINE=9 OMRSCALE_LOG_LEVEL=debug

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
