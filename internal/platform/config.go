package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the config file.
const (
	EnvAdapter   = "QAFIZZ_ADAPTER"
	EnvDSN       = "QAFIZZ_DSN"
	EnvSaveDelay = "QAFIZZ_SAVE_DELAY"
	EnvReadOnly  = "QAFIZZ_READ_ONLY"
	EnvTable     = "QAFIZZ_TABLE"
	EnvDatabase  = "QAFIZZ_DATABASE"
)

// Config is the on-disk configuration (qafizz.yaml).
type Config struct {
	Adapter   string
	DSN       string
	SaveDelay time.Duration
	ReadOnly  bool
	Table     string
	Database  string

	// saveDelaySet distinguishes an explicit 0 from an absent value.
	saveDelaySet bool
}

// DefaultConfig stores data in .qafizz next to the config file.
func DefaultConfig() Config {
	return Config{Adapter: AdapterFS, DSN: DataDir}
}

type rawConfig struct {
	Adapter   string `yaml:"adapter"`
	DSN       string `yaml:"dsn"`
	SaveDelay string `yaml:"save_delay,omitempty"`
	ReadOnly  bool   `yaml:"read_only"`
	Table     string `yaml:"table,omitempty"`
	Database  string `yaml:"database,omitempty"`
}

// LoadConfig reads path (if it exists) over DefaultConfig, then loads a
// .env file from the same directory and applies environment overrides.
// A relative fs DSN is resolved against the config file's directory.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	dir := filepath.Dir(path)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := cfg.parse(data); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}
	}

	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if cfg.Adapter == AdapterFS && cfg.DSN != "" && !filepath.IsAbs(cfg.DSN) {
		cfg.DSN = filepath.Join(dir, cfg.DSN)
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Adapter != "" {
		c.Adapter = raw.Adapter
	}
	if raw.DSN != "" {
		c.DSN = raw.DSN
	}
	if raw.SaveDelay != "" {
		d, err := time.ParseDuration(raw.SaveDelay)
		if err != nil {
			return fmt.Errorf("save_delay: %w", err)
		}
		c.SaveDelay, c.saveDelaySet = d, true
	}
	c.ReadOnly = raw.ReadOnly
	c.Table = raw.Table
	c.Database = raw.Database
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAdapter); v != "" {
		c.Adapter = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.DSN = v
	}
	if v := os.Getenv(EnvSaveDelay); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSaveDelay, err)
		}
		c.SaveDelay, c.saveDelaySet = d, true
	}
	if v := os.Getenv(EnvReadOnly); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvReadOnly, err)
		}
		c.ReadOnly = b
	}
	if v := os.Getenv(EnvTable); v != "" {
		c.Table = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	return nil
}

// Options converts the config into functional options.
func (c Config) Options() []Option {
	opts := []Option{
		WithAdapter(c.Adapter),
		WithReadOnly(c.ReadOnly),
	}
	if c.saveDelaySet {
		opts = append(opts, WithSaveDelay(c.SaveDelay))
	}
	if c.Table != "" {
		opts = append(opts, WithTable(c.Table))
	}
	if c.Database != "" {
		opts = append(opts, WithDatabase(c.Database))
	}
	return opts
}

// Marshal renders the config as YAML, e.g. for `qafizz config`.
func (c Config) Marshal() ([]byte, error) {
	raw := rawConfig{
		Adapter:  c.Adapter,
		DSN:      c.DSN,
		ReadOnly: c.ReadOnly,
		Table:    c.Table,
		Database: c.Database,
	}
	if c.saveDelaySet {
		raw.SaveDelay = c.SaveDelay.String()
	}
	return yaml.Marshal(raw)
}
