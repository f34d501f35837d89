// Package config loads process settings from defaults, an optional YAML file
// and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Records  Records  `yaml:"records"`
	Log      Log      `yaml:"log"`
	Trace    Trace    `yaml:"trace"`
}

type Server struct {
	Port            string   `yaml:"port"`
	BodyLimit       string   `yaml:"bodyLimit"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
	// RetryAfter is advertised to clients when the store is unavailable.
	RetryAfter Duration `yaml:"retryAfter"`
}

type Database struct {
	URL             string   `yaml:"url"`
	MaxOpenConns    int      `yaml:"maxOpenConns"`
	MaxIdleConns    int      `yaml:"maxIdleConns"`
	ConnMaxLifetime Duration `yaml:"connMaxLifetime"`
	AcquireTimeout  Duration `yaml:"acquireTimeout"`
	SlowThreshold   Duration `yaml:"slowThreshold"`
	EnsureSchema    bool     `yaml:"ensureSchema"`
}

type Records struct {
	DeletePolicy     string `yaml:"deletePolicy"` // reject, cascade
	MinNameLength    int    `yaml:"minNameLength"`
	DefaultPageLimit int    `yaml:"defaultPageLimit"`
	MaxPageLimit     int    `yaml:"maxPageLimit"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

type Trace struct {
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sampleRatio"`
	ServiceName string  `yaml:"serviceName"`
}

// Duration reads Go duration strings such as "2s" from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Default() Config {
	return Config{
		Server: Server{
			Port:            "8080",
			BodyLimit:       "1M",
			ShutdownTimeout: Duration(10 * time.Second),
			RetryAfter:      Duration(time.Second),
		},
		Database: Database{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration(30 * time.Minute),
			AcquireTimeout:  Duration(2 * time.Second),
			SlowThreshold:   Duration(300 * time.Millisecond),
			EnsureSchema:    true,
		},
		Records: Records{
			DeletePolicy:     string(domain.DeleteReject),
			DefaultPageLimit: 10,
			MaxPageLimit:     100,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Trace: Trace{
			SampleRatio: 1,
			ServiceName: "person-registry",
		},
	}
}

// Load reads the file at path when it is not empty, then applies the
// process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

func LoadWithEnv(path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "open config file")
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, errors.Wrapf(err, "decode config file %s", path)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(getenv, "PORT", &c.Server.Port)
	setString(getenv, "DATABASE_URL", &c.Database.URL)
	setString(getenv, "LOG_LEVEL", &c.Log.Level)
	setString(getenv, "LOG_FORMAT", &c.Log.Format)
	setString(getenv, "DELETE_POLICY", &c.Records.DeletePolicy)
	setString(getenv, "TRACE_ENDPOINT", &c.Trace.Endpoint)

	if err := setInt(getenv, "DB_MAX_OPEN_CONNS", &c.Database.MaxOpenConns); err != nil {
		return err
	}
	if err := setInt(getenv, "MIN_NAME_LENGTH", &c.Records.MinNameLength); err != nil {
		return err
	}
	if err := setDuration(getenv, "DB_ACQUIRE_TIMEOUT", &c.Database.AcquireTimeout); err != nil {
		return err
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if value := strings.TrimSpace(getenv(key)); value != "" {
		*dst = value
	}
}

func setInt(getenv func(string) string, key string, dst *int) error {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, raw)
	}
	*dst = value
	return nil
}

func setDuration(getenv func(string) string, key string, dst *Duration) error {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, raw)
	}
	*dst = Duration(value)
	return nil
}

func (c Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("%w: database url is required (DATABASE_URL)", ErrInvalidConfig)
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("%w: port %q", ErrInvalidConfig, c.Server.Port)
	}
	if _, err := c.Records.Policy(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("%w: maxOpenConns must be positive", ErrInvalidConfig)
	}
	if c.Database.AcquireTimeout <= 0 {
		return fmt.Errorf("%w: acquireTimeout must be positive", ErrInvalidConfig)
	}
	if c.Records.DefaultPageLimit <= 0 || c.Records.DefaultPageLimit > c.Records.MaxPageLimit {
		return fmt.Errorf("%w: page limits default=%d max=%d", ErrInvalidConfig, c.Records.DefaultPageLimit, c.Records.MaxPageLimit)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// Policy parses the configured delete policy.
func (r Records) Policy() (domain.DeletePolicy, error) {
	return domain.ParseDeletePolicy(r.DeletePolicy)
}
