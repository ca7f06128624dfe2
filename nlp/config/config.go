// Package config loads segtag settings from YAML, BCL or JSON files with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/oarkflow/bcl"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvAddr      = "SEGTAG_ADDR"
	EnvDB        = "SEGTAG_DB"
	EnvLogLevel  = "SEGTAG_LOG_LEVEL"
	EnvJWTSecret = "SEGTAG_JWT_SECRET"
	EnvWorkers   = "SEGTAG_WORKERS"
)

type Config struct {
	Server     Server     `yaml:"server" bcl:"server" json:"server"`
	Morphology Morphology `yaml:"morphology" bcl:"morphology" json:"morphology"`
	Store      Store      `yaml:"store" bcl:"store" json:"store"`
	Log        Log        `yaml:"log" bcl:"log" json:"log"`
	Pipeline   Pipeline   `yaml:"pipeline" bcl:"pipeline" json:"pipeline"`
}

type Server struct {
	Address      string `yaml:"address" bcl:"address" json:"address"`
	ReadTimeout  int    `yaml:"read_timeout" bcl:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" bcl:"write_timeout" json:"write_timeout"` // seconds
	BodyLimit    int    `yaml:"body_limit" bcl:"body_limit" json:"body_limit"`
	// RateLimit is requests per minute per client; zero disables the limiter.
	RateLimit   int    `yaml:"rate_limit" bcl:"rate_limit" json:"rate_limit"`
	MaxBatch    int    `yaml:"max_batch" bcl:"max_batch" json:"max_batch"`
	JWTSecret   string `yaml:"jwt_secret" bcl:"jwt_secret" json:"jwt_secret"`
	HealthPath  string `yaml:"health_path" bcl:"health_path" json:"health_path"`
	MetricsPath string `yaml:"metrics_path" bcl:"metrics_path" json:"metrics_path"`
}

func (s Server) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s Server) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

type Store struct {
	Driver string `yaml:"driver" bcl:"driver" json:"driver"`
	// DSN empty disables persistence.
	DSN string `yaml:"dsn" bcl:"dsn" json:"dsn"`
}

func (s Store) Enabled() bool { return s.DSN != "" }

type Log struct {
	Level string `yaml:"level" bcl:"level" json:"level"`
	// File empty logs to stdout only.
	File       string `yaml:"file" bcl:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" bcl:"max_size" json:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups" bcl:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" bcl:"max_age" json:"max_age"` // days
	Compress   bool   `yaml:"compress" bcl:"compress" json:"compress"`
}

type Pipeline struct {
	Workers       int     `yaml:"workers" bcl:"workers" json:"workers"`
	RatePerSecond float64 `yaml:"rate_per_second" bcl:"rate_per_second" json:"rate_per_second"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = 4 << 20
	}
	if c.Server.MaxBatch == 0 {
		c.Server.MaxBatch = 1000
	}
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = "/health"
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = "/metrics"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = 28
	}
	if c.Morphology.MinRootLength == 0 {
		c.Morphology.MinRootLength = defaultMinRoot
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Server.MaxBatch < 0 {
		errs = append(errs, errors.New("server.max_batch must not be negative"))
	}
	if c.Morphology.MinRootLength < 0 {
		errs = append(errs, errors.New("morphology.min_root_length must not be negative"))
	}
	if c.Pipeline.Workers < 0 {
		errs = append(errs, errors.New("pipeline.workers must not be negative"))
	}
	if c.Pipeline.RatePerSecond < 0 {
		errs = append(errs, errors.New("pipeline.rate_per_second must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads path, picking the decoder by extension (.yaml, .yml, .bcl,
// .json), then applies environment overrides and defaults. An empty path
// yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(path, data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(c, os.LookupEnv); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func decode(path string, data []byte, c *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".bcl":
		_, err := bcl.Unmarshal(data, c)
		return err
	case ".json":
		return json.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config extension %q", filepath.Ext(path))
	}
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with SEGTAG_* variables found through lookup.
func ApplyEnv(c *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Address = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		c.Store.DSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvJWTSecret); ok && v != "" {
		c.Server.JWTSecret = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Pipeline.Workers = n
	}
	return nil
}

// LoadJSON decodes a JSON file into a new T.
func LoadJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &v, nil
}
