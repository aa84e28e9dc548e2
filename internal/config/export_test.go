package config

// LoadEnv exposes environment overlay with an injected lookup.
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	return c.loadEnv(lookup)
}
