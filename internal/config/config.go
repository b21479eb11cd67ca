// Package config loads colony configuration from a YAML file, optional .env
// files and MOUSECOLONY_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"mousecolony/internal/blob"
	"mousecolony/internal/core"
	"mousecolony/internal/husbandry"
	"mousecolony/internal/infra/audit"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MOUSECOLONY_"

// Config is the top-level configuration.
type Config struct {
	Storage StorageConfig    `yaml:"storage"`
	Blob    blob.Config      `yaml:"blob"`
	Audit   AuditConfig      `yaml:"audit"`
	Log     LogConfig        `yaml:"log"`
	Metrics MetricsConfig    `yaml:"metrics"`
	Needs   husbandry.Policy `yaml:"needs"`
	Digest  DigestConfig     `yaml:"digest"`
}

// StorageConfig selects the colony record store.
type StorageConfig struct {
	Driver      core.StorageDriver `yaml:"driver"`
	SQLitePath  string             `yaml:"sqlite_path"`
	PostgresDSN string             `yaml:"postgres_dsn"`
}

// Core converts to the service storage configuration.
func (s StorageConfig) Core() core.StorageConfig {
	return core.StorageConfig{Driver: s.Driver, SQLitePath: s.SQLitePath, PostgresDSN: s.PostgresDSN}
}

// AuditConfig enables the persistent audit trail.
type AuditConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dialect audit.Dialect `yaml:"dialect"`
	DSN     string        `yaml:"dsn"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
	// Mode is "development" (console) or "production" (JSON).
	Mode       string `yaml:"mode"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MetricsConfig configures the Prometheus recorder.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// DigestConfig configures the scheduled needs digest.
type DigestConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string `yaml:"schedule"`
	// Proprietor limits the digest to one person's cages when set.
	Proprietor string `yaml:"proprietor"`
}

// Defaults.
const (
	DefaultSQLitePath       = "mousecolony.db"
	DefaultAuditDSN         = "mousecolony-audit.db"
	DefaultLogLevel         = "info"
	DefaultLogMode          = "development"
	DefaultMetricsNamespace = "mousecolony"
	DefaultDigestSchedule   = "0 7 * * 1-5"
)

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	cfg := &Config{Needs: husbandry.DefaultPolicy()}
	cfg.applyDefaults()
	return cfg
}

// Load reads the .env files, then the YAML file at path (skipped when path
// is empty), then applies environment overrides, defaults and validation.
// Missing .env files are ignored.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	var data []byte
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return parse(data, os.LookupEnv)
}

// Parse unmarshals YAML bytes and applies environment overrides, defaults
// and validation.
func Parse(data []byte) (*Config, error) {
	return parse(data, os.LookupEnv)
}

func parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{Needs: husbandry.DefaultPolicy()}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	envErr := cfg.applyEnv(lookup)
	cfg.applyDefaults()
	if err := errors.Join(envErr, cfg.validate()); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}
	env.str("STORAGE_DRIVER", (*string)(&c.Storage.Driver))
	env.str("SQLITE_PATH", &c.Storage.SQLitePath)
	env.str("POSTGRES_DSN", &c.Storage.PostgresDSN)

	env.str("BLOB_DRIVER", (*string)(&c.Blob.Driver))
	env.str("BLOB_ROOT", &c.Blob.Root)
	env.str("BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	env.str("BLOB_S3_REGION", &c.Blob.S3.Region)
	env.str("BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	env.str("BLOB_S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	env.str("BLOB_S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	env.boolean("BLOB_S3_PATH_STYLE", &c.Blob.S3.PathStyle)

	env.boolean("AUDIT_ENABLED", &c.Audit.Enabled)
	env.str("AUDIT_DIALECT", (*string)(&c.Audit.Dialect))
	env.str("AUDIT_DSN", &c.Audit.DSN)

	env.str("LOG_LEVEL", &c.Log.Level)
	env.str("LOG_MODE", &c.Log.Mode)
	env.str("LOG_FILE", &c.Log.File)

	env.boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	env.str("METRICS_NAMESPACE", &c.Metrics.Namespace)

	env.window("NEEDS_DATE_MATED", &c.Needs.DateMated)
	env.window("NEEDS_PUP_CHECK", &c.Needs.PupCheck)
	env.window("NEEDS_TOE_CLIP", &c.Needs.ToeClip)
	env.window("NEEDS_GENOTYPE", &c.Needs.Genotype)
	env.window("NEEDS_WEAN", &c.Needs.Wean)
	env.boolean("INCLUDE_TOE_CLIP", &c.Needs.IncludeToeClip)
	env.boolean("INCLUDE_GENOTYPE", &c.Needs.IncludeGenotype)

	env.str("DIGEST_SCHEDULE", &c.Digest.Schedule)
	env.str("DIGEST_PROPRIETOR", &c.Digest.Proprietor)
	return errors.Join(env.errs...)
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = core.StorageSQLite
	}
	if c.Storage.Driver == core.StorageSQLite && c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = DefaultSQLitePath
	}
	if c.Blob.Driver == "" {
		c.Blob.Driver = blob.DriverFilesystem
	}
	if c.Audit.Enabled {
		if c.Audit.Dialect == "" {
			c.Audit.Dialect = audit.DialectSQLite
		}
		if c.Audit.Dialect == audit.DialectSQLite && c.Audit.DSN == "" {
			c.Audit.DSN = DefaultAuditDSN
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Mode == "" {
		c.Log.Mode = DefaultLogMode
	}
	if c.Log.File != "" {
		if c.Log.MaxSizeMB == 0 {
			c.Log.MaxSizeMB = 16
		}
		if c.Log.MaxBackups == 0 {
			c.Log.MaxBackups = 8
		}
		if c.Log.MaxAgeDays == 0 {
			c.Log.MaxAgeDays = 90
		}
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = DefaultDigestSchedule
	}
}

func (c *Config) validate() error {
	var errs []error
	switch c.Storage.Driver {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, sqlite, postgres", c.Storage.Driver))
	}
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q is not one of fs, memory, s3", c.Blob.Driver))
	}
	if c.Audit.Enabled {
		switch c.Audit.Dialect {
		case audit.DialectSQLite, audit.DialectPostgres:
			if c.Audit.DSN == "" {
				errs = append(errs, errors.New("audit.dsn is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("audit.dialect %q is not one of sqlite, postgres", c.Audit.Dialect))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Mode {
	case "development", "production":
	default:
		errs = append(errs, fmt.Errorf("log.mode %q is not one of development, production", c.Log.Mode))
	}
	if err := c.Needs.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("needs: %w", err))
	}
	if _, err := cron.ParseStandard(c.Digest.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("digest.schedule %q: %w", c.Digest.Schedule, err))
	}
	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		return
	}
	*dst = b
}

// window parses "trigger,target,warn" day offsets.
func (e *envReader) window(name string, dst *husbandry.Window) {
	v, ok := e.get(name)
	if !ok || v == "" {
		return
	}
	parts := strings.Split(v, ",")
	if len(parts) != 3 {
		e.errs = append(e.errs, fmt.Errorf("%s%s: want trigger,target,warn, got %q", EnvPrefix, name, v))
		return
	}
	var days [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		days[i] = n
	}
	*dst = husbandry.Window{Trigger: days[0], Target: days[1], Warn: days[2]}
}
