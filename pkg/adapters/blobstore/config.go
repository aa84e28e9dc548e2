package blobstore

import (
	"fmt"
	"os"
)

// DefaultContainer is used when no container is configured.
const DefaultContainer = "service-integration"

// Config holds Azure Blob Storage connection parameters.
type Config struct {
	Container        string `json:"container" yaml:"container" mapstructure:"container"`
	ConnectionString string `json:"connection_string" yaml:"connection_string" mapstructure:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Container        string
	ConnectionString string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.Container == "" {
		c.Container = DefaultContainer
	}
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) loadEnv(env *Env) {
	if env.Container != "" {
		if v := os.Getenv(env.Container); v != "" {
			c.Container = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
}

func (c *Config) validate() error {
	if c.Container == "" {
		return fmt.Errorf("container required")
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("connection_string required")
	}
	return nil
}
