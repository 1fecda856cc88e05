// Package config resolves jobdeck configuration from a config file,
// JOBDECK_* environment variables, and defaults, in that order of
// precedence (env wins).
//
// The object store bucket is the one setting with no sane default:
// without it the tool has no source of truth, so a missing bucket is a
// fatal ConfigError at startup rather than something retried at runtime.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jobdeck/jobdeck/internal/careerdb/lock"
)

// DataDir is the working directory for local state: the database working
// copy, the log file, and the default config file location.
const DataDir = ".jobdeck"

// ConfigError reports a fatal configuration problem. It is never retried.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Msg)
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Store selects and parameterizes the object store backend.
type Store struct {
	// Backend is "s3" or "dir".
	Backend string

	// S3 settings (backend "s3").
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// Dir settings (backend "dir").
	Path string
}

// Config is the resolved jobdeck configuration.
type Config struct {
	Store Store

	// SnapshotKey is the remote key of the database snapshot.
	SnapshotKey string

	// LocalDBPath is the local working copy of the database.
	LocalDBPath string

	Lock lock.Options

	// ProfilePath is the YAML profile document.
	ProfilePath string

	// AnthropicModel is the model used by the job analyzer. The API key
	// always comes from the environment, never the config file.
	AnthropicModel string
	AnthropicKey   string

	// SitePrefix is the object store prefix for published portfolio pages.
	SitePrefix string

	// LogFile enables rotating file logging when non-empty.
	LogFile string
}

// Load resolves the configuration. configPath overrides the default
// config file search ($PWD/.jobdeck/config.yaml, then ~/.jobdeck).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(DataDir)
		v.AddConfigPath(filepath.Join("$HOME", DataDir))
	}

	v.SetEnvPrefix("JOBDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; env and defaults may be enough.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{Key: "file", Msg: err.Error()}
		}
	}

	cfg := &Config{
		Store: Store{
			Backend:   v.GetString("store.backend"),
			Endpoint:  v.GetString("store.endpoint"),
			Region:    v.GetString("store.region"),
			AccessKey: v.GetString("store.access_key"),
			SecretKey: v.GetString("store.secret_key"),
			Bucket:    v.GetString("store.bucket"),
			UseSSL:    v.GetBool("store.use_ssl"),
			Path:      v.GetString("store.path"),
		},
		SnapshotKey: v.GetString("db.snapshot_key"),
		LocalDBPath: v.GetString("db.local_path"),
		Lock: lock.Options{
			MaxAttempts: v.GetInt("lock.max_attempts"),
			RetryDelay:  v.GetDuration("lock.retry_delay"),
			Staleness:   v.GetDuration("lock.staleness"),
		},
		ProfilePath:    v.GetString("profile.path"),
		AnthropicModel: v.GetString("analyze.model"),
		AnthropicKey:   v.GetString("anthropic_api_key"),
		SitePrefix:     v.GetString("site.prefix"),
		LogFile:        v.GetString("log.file"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", "s3")
	v.SetDefault("store.use_ssl", true)
	v.SetDefault("db.snapshot_key", "career_data.db")
	v.SetDefault("db.local_path", filepath.Join(DataDir, "career_data.db"))
	v.SetDefault("lock.max_attempts", 10)
	v.SetDefault("lock.retry_delay", 2*time.Second)
	v.SetDefault("lock.staleness", 5*time.Minute)
	v.SetDefault("profile.path", filepath.Join(DataDir, "profile.yaml"))
	v.SetDefault("analyze.model", "claude-sonnet-4-5")
	v.SetDefault("site.prefix", "site/")
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "s3":
		if c.Store.Bucket == "" {
			return &ConfigError{Key: "store.bucket", Msg: "bucket name is required for the s3 backend"}
		}
		if c.Store.Endpoint == "" {
			return &ConfigError{Key: "store.endpoint", Msg: "endpoint is required for the s3 backend"}
		}
	case "dir":
		if c.Store.Path == "" {
			return &ConfigError{Key: "store.path", Msg: "directory path is required for the dir backend"}
		}
	default:
		return &ConfigError{Key: "store.backend", Msg: fmt.Sprintf("unknown backend %q (expected s3 or dir)", c.Store.Backend)}
	}

	if c.Lock.MaxAttempts < 1 {
		return &ConfigError{Key: "lock.max_attempts", Msg: "must be at least 1"}
	}
	return nil
}
