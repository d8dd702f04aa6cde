// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/text/currency"
	"gopkg.in/yaml.v2"

	"premiumcalc/ml"
	"premiumcalc/quote"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Model struct {
		Path  string `yaml:"path"`
		Watch bool   `yaml:"watch"`
	} `yaml:"model"`
	Currency struct {
		Rate float64 `yaml:"rate"`
		Code string  `yaml:"code"`
	} `yaml:"currency"`
	Quote struct {
		CacheSize int `yaml:"cache_size"`
	} `yaml:"quote"`
	Log struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Http.Port = 8080
	c.Http.Timeout = 30 * time.Second
	c.Http.AllowedOrigins = []string{"*"}
	c.Model.Path = ml.DefaultModelPath
	c.Model.Watch = true
	c.Currency.Rate = quote.DefaultRate
	c.Currency.Code = quote.SecondaryCurrency
	c.Quote.CacheSize = 256
	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.MaxSizeMB = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	return &c
}

// Load reads path over the defaults. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks every section and upper-cases currency.code.
func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout <= 0 {
		return errors.New("http.timeout must be positive")
	}
	if c.Model.Path == "" {
		return errors.New("model.path is required")
	}
	if c.Currency.Rate <= 0 {
		return errors.New("currency.rate must be positive")
	}
	unit, err := currency.ParseISO(c.Currency.Code)
	if err != nil {
		return fmt.Errorf("currency.code %q: %w", c.Currency.Code, err)
	}
	c.Currency.Code = unit.String()
	if c.Quote.CacheSize < 0 {
		return errors.New("quote.cache_size must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
