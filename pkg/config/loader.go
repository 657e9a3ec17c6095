package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound = errors.New("configuration file not found")
	ErrInvalidJSON  = errors.New("invalid JSON syntax")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
	ErrUnknownKey   = errors.New("unknown configuration key")
)

// Load builds a configuration from defaults, the optional file at path and
// the environment, in that order. getenv is usually os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	if getenv != nil {
		if err := cfg.ApplyEnv(getenv); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// MergeFile overlays the values of a YAML or JSON file. The format follows
// the extension; anything other than .json is read as YAML.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var tree map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("%w in %s: %v", ErrInvalidJSON, path, err)
		}
		_ = json.Unmarshal(data, &tree)
	} else {
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("%w in %s: %v", ErrInvalidYAML, path, err)
		}
		_ = yaml.Unmarshal(data, &tree)
	}

	for _, key := range flatten("", tree) {
		if _, ok := c.fields()[key]; ok {
			c.mark(key, SourceFile)
		}
	}
	return nil
}

// Set assigns a value given as text, as flags and environment variables do.
func (c *Config) Set(key, value, source string) error {
	ptr, ok := c.fields()[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	switch p := ptr.(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		*p = n
	case *bool:
		*p = parseBool(value)
	}

	c.mark(key, source)
	return nil
}

// Source reports which layer last set the key.
func (c *Config) Source(key string) string {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

// Keys returns every settable key in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.fields()))
	for k := range c.fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) mark(key, source string) {
	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = source
}

func (c *Config) fields() map[string]any {
	return map[string]any{
		"server.addr":                  &c.Server.Addr,
		"server.readTimeout":           &c.Server.ReadTimeout,
		"server.writeTimeout":          &c.Server.WriteTimeout,
		"server.shutdownTimeout":       &c.Server.ShutdownTimeout,
		"server.maxBodyBytes":          &c.Server.MaxBodyBytes,
		"database.path":                &c.Database.Path,
		"database.maxOpenConns":        &c.Database.MaxOpenConns,
		"database.busyTimeoutMs":       &c.Database.BusyTimeoutMs,
		"pagination.defaultPageSize":   &c.Pagination.DefaultPageSize,
		"pagination.maxPageSize":       &c.Pagination.MaxPageSize,
		"pagination.nextPage":          &c.Pagination.NextPage,
		"limits.nameMaxLength":         &c.Limits.NameMaxLength,
		"limits.policyNumberMaxLength": &c.Limits.PolicyNumberMaxLength,
		"log.level":                    &c.Log.Level,
		"log.format":                   &c.Log.Format,
		"log.file":                     &c.Log.File,
		"seed.enabled":                 &c.Seed.Enabled,
		"seed.seed":                    &c.Seed.Seed,
		"seed.accounts":                &c.Seed.Accounts,
		"seed.transactions":            &c.Seed.Transactions,
		"seed.vrps":                    &c.Seed.VRPs,
		"seed.medicalInsured":          &c.Seed.MedicalInsured,
		"seed.documents":               &c.Seed.Documents,
	}
}

func flatten(prefix string, tree map[string]any) []string {
	var keys []string
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			keys = append(keys, flatten(key, sub)...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
