package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"catrapid-core/filter"

	"catrapid/internal/outdir"
	"catrapid/internal/spool"
)

// Config holds every run setting that can come from a YAML file.
// Command-line flags that were set explicitly take precedence.
type Config struct {
	// Minimum retained score, or "OFF".
	Cutoff string `yaml:"cutoff"`

	Filters FiltersConfig `yaml:"filters"`
	Output  OutputConfig  `yaml:"output"`
	Scan    ScanConfig    `yaml:"scan"`
	Publish PublishConfig `yaml:"publish"`
	Logging LoggingConfig `yaml:"logging"`
}

// FiltersConfig points at the optional allow-lists.
type FiltersConfig struct {
	Pairs    string `yaml:"pairs"`    // protein<TAB>rna per line
	Proteins string `yaml:"proteins"` // one protein ID per line
	RNAs     string `yaml:"rnas"`     // one RNA ID per line
}

// OutputConfig controls what is written to the output directory.
type OutputConfig struct {
	WriteInteractions bool   `yaml:"write_interactions"`
	BatchSize         int    `yaml:"batch_size"`
	ShardCodec        string `yaml:"shard_codec"` // none, lz4, zstd
	IfExists          string `yaml:"if_exists"`   // fail, overwrite
}

// ScanConfig tunes the single pass.
type ScanConfig struct {
	Pipeline         bool   `yaml:"pipeline"`
	SkipMalformed    bool   `yaml:"skip_malformed"`
	ProgressInterval string `yaml:"progress_interval"` // Go duration; "0" disables
}

// PublishConfig uploads the finished outputs to object storage.
type PublishConfig struct {
	URL       string `yaml:"url"` // s3://bucket/prefix or minio://endpoint/bucket/prefix
	Insecure  bool   `yaml:"insecure"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultBatchSize is the number of surviving lines per shard.
const DefaultBatchSize = 1000000

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Cutoff: filter.CutoffOff,
		Output: OutputConfig{
			WriteInteractions: true,
			BatchSize:         DefaultBatchSize,
			ShardCodec:        string(spool.CodecNone),
			IfExists:          string(outdir.PolicyFail),
		},
		Scan: ScanConfig{
			ProgressInterval: "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv applies environment overrides to a config that was not loaded
// from a file.
func (c *Config) ApplyEnv() { c.applyEnvOverrides() }

func (c *Config) applyEnvOverrides() {
	if lvl := os.Getenv("CATRAPID_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if key := os.Getenv("CATRAPID_S3_ACCESS_KEY"); key != "" {
		c.Publish.AccessKey = key
	}
	if key := os.Getenv("CATRAPID_S3_SECRET_KEY"); key != "" {
		c.Publish.SecretKey = key
	}
}

// GetProgressInterval returns the progress log interval. Zero disables
// progress logs.
func (c *Config) GetProgressInterval() time.Duration {
	s := strings.TrimSpace(c.Scan.ProgressInterval)
	if s == "" || s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidLogLevels lists accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks values that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	var errs []error
	if _, err := filter.ParseCutoff(c.Cutoff); err != nil {
		errs = append(errs, err)
	}
	if c.Output.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be > 0, got %d", c.Output.BatchSize))
	}
	if _, err := spool.ParseCodec(c.Output.ShardCodec); err != nil {
		errs = append(errs, err)
	}
	if _, err := outdir.ParsePolicy(c.Output.IfExists); err != nil {
		errs = append(errs, err)
	}
	if s := strings.TrimSpace(c.Scan.ProgressInterval); s != "" && s != "0" {
		if d, err := time.ParseDuration(s); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("invalid progress interval %q", c.Scan.ProgressInterval))
		}
	}
	if !validLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s (valid: console, json)", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validLevel(l string) bool {
	for _, v := range ValidLogLevels {
		if strings.EqualFold(l, v) {
			return true
		}
	}
	return false
}
