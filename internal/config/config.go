// Package config loads stepflow settings from an optional YAML or JSON file
// and STEPFLOW_* environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvDeadlineSeconds  = "STEPFLOW_DEADLINE_SECONDS"
	EnvWorkflowName     = "STEPFLOW_WORKFLOW_NAME"
	EnvMatchLiteral     = "STEPFLOW_MATCH_LITERAL"
	EnvSourceObjectKey  = "STEPFLOW_SOURCE_OBJECT_KEY"
	EnvBucket           = "STEPFLOW_BUCKET"
	EnvLogLevel         = "STEPFLOW_LOG_LEVEL"
	EnvRedisAddr        = "STEPFLOW_REDIS_ADDR"
	EnvRedisPassword    = "STEPFLOW_REDIS_PASSWORD"
	EnvRedisDB          = "STEPFLOW_REDIS_DB"
	EnvRedisTTL         = "STEPFLOW_REDIS_TTL_SECONDS"
	EnvAzureConnection  = "STEPFLOW_AZURE_CONNECTION_STRING"
	EnvAzureContainer   = "STEPFLOW_AZURE_CONTAINER"
	EnvDetectorConfig   = "STEPFLOW_DETECTOR_CONFIG"
	EnvDetectorName     = "STEPFLOW_DETECTOR_NAME"
	EnvStoreKey         = "STEPFLOW_STORE_ENCRYPTION_KEY"
	EnvStoreMaskFields  = "STEPFLOW_STORE_MASK_FIELDS"
	EnvServerAddr       = "STEPFLOW_SERVER_ADDR"
	EnvServerReadTimeout = "STEPFLOW_SERVER_READ_TIMEOUT_SECONDS"
)

// Config is the root configuration.
type Config struct {
	DeadlineSeconds int    `mapstructure:"deadlineSeconds"`
	WorkflowName    string `mapstructure:"workflowName"`
	MatchLiteral    string `mapstructure:"matchLiteral"`
	SourceObjectKey string `mapstructure:"sourceObjectKey"`
	Bucket          string `mapstructure:"bucket"`
	LogLevel        string `mapstructure:"logLevel"`

	Redis    RedisConfig    `mapstructure:"redis"`
	Azure    AzureConfig    `mapstructure:"azure"`
	Detector DetectorConfig `mapstructure:"detector"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
}

// RedisConfig selects the redis result store when Addr is set.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttlSeconds"`
}

// Enabled reports whether a redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// TTL returns TTLSeconds as a duration; zero means no expiry.
func (c RedisConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// AzureConfig selects the blob object store when ConnectionString is set.
type AzureConfig struct {
	ConnectionString string `mapstructure:"connectionString"`
	Container        string `mapstructure:"container"`
}

// Enabled reports whether a connection string is configured.
func (c AzureConfig) Enabled() bool { return c.ConnectionString != "" }

// DetectorConfig selects a process detector from a command file.
type DetectorConfig struct {
	Config string `mapstructure:"config"`
	Name   string `mapstructure:"name"`
}

// StoreConfig wraps the result store with masking and encryption.
type StoreConfig struct {
	// EncryptionKey is a 32-byte key, hex or base64 encoded.
	EncryptionKey string   `mapstructure:"encryptionKey"`
	MaskFields    []string `mapstructure:"maskFields"`
}

// Key decodes EncryptionKey. It returns nil when no key is configured.
func (c StoreConfig) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	if k, err := hex.DecodeString(c.EncryptionKey); err == nil {
		return k, nil
	}
	k, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, errors.New("encryptionKey must be hex or base64")
	}
	return k, nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	ReadTimeoutSeconds int    `mapstructure:"readTimeoutSeconds"`
}

// ReadTimeout returns ReadTimeoutSeconds as a duration.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file or environment is present.
func Default() Config {
	qc := stepflow.DefaultQualityControlConfig()
	return Config{
		DeadlineSeconds: int(qc.Deadline / time.Second),
		WorkflowName:    qc.WorkflowName,
		MatchLiteral:    qc.MatchLiteral,
		SourceObjectKey: qc.SourceObjectKey,
		Bucket:          qc.Bucket,
		LogLevel:        "info",
		Server: ServerConfig{
			Addr:               ":8080",
			ReadTimeoutSeconds: 10,
		},
	}
}

// Load reads path (if non-empty and present), applies environment overrides
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := decode(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.loadEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return raw, nil
}

// decode overlays raw onto cfg. Unknown keys are rejected.
func decode(raw map[string]any, cfg *Config) error {
	if raw == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}
		*dst = n
		return nil
	}

	str(EnvWorkflowName, &c.WorkflowName)
	str(EnvMatchLiteral, &c.MatchLiteral)
	str(EnvSourceObjectKey, &c.SourceObjectKey)
	str(EnvBucket, &c.Bucket)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvRedisAddr, &c.Redis.Addr)
	str(EnvRedisPassword, &c.Redis.Password)
	str(EnvAzureConnection, &c.Azure.ConnectionString)
	str(EnvAzureContainer, &c.Azure.Container)
	str(EnvDetectorConfig, &c.Detector.Config)
	str(EnvDetectorName, &c.Detector.Name)
	str(EnvStoreKey, &c.Store.EncryptionKey)
	str(EnvServerAddr, &c.Server.Addr)

	if v, ok := lookup(EnvStoreMaskFields); ok && v != "" {
		c.Store.MaskFields = nil
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.Store.MaskFields = append(c.Store.MaskFields, f)
			}
		}
	}

	return errors.Join(
		num(EnvDeadlineSeconds, &c.DeadlineSeconds),
		num(EnvRedisDB, &c.Redis.DB),
		num(EnvRedisTTL, &c.Redis.TTLSeconds),
		num(EnvServerReadTimeout, &c.Server.ReadTimeoutSeconds),
	)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.DeadlineSeconds <= 0 {
		errs = append(errs, fmt.Errorf("deadlineSeconds must be positive, got %d", c.DeadlineSeconds))
	}
	if c.WorkflowName == "" {
		errs = append(errs, errors.New("workflowName is required"))
	}
	if c.MatchLiteral == "" {
		errs = append(errs, errors.New("matchLiteral is required"))
	}
	if c.SourceObjectKey == "" {
		errs = append(errs, errors.New("sourceObjectKey is required"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("logLevel: %w", err))
	}
	if c.Redis.TTLSeconds < 0 {
		errs = append(errs, errors.New("redis.ttlSeconds must not be negative"))
	}
	if c.Detector.Name != "" && c.Detector.Config == "" {
		errs = append(errs, errors.New("detector.name requires detector.config"))
	}
	if key, err := c.Store.Key(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	} else if key != nil && len(key) != 32 {
		errs = append(errs, fmt.Errorf("store.encryptionKey must decode to 32 bytes, got %d", len(key)))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Deadline returns DeadlineSeconds as a duration.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.DeadlineSeconds) * time.Second
}

// QualityControl converts the workflow settings.
func (c *Config) QualityControl() stepflow.QualityControlConfig {
	return stepflow.QualityControlConfig{
		WorkflowName:    c.WorkflowName,
		MatchLiteral:    c.MatchLiteral,
		Bucket:          c.Bucket,
		SourceObjectKey: c.SourceObjectKey,
		Deadline:        c.Deadline(),
	}
}
