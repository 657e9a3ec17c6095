package config

import (
	"github.com/getmockd/bankmock/pkg/resource"
)

// Value sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Database   DatabaseConfig   `json:"database" yaml:"database"`
	Pagination PaginationConfig `json:"pagination" yaml:"pagination"`
	Limits     LimitsConfig     `json:"limits" yaml:"limits"`
	Log        LogConfig        `json:"log" yaml:"log"`
	Seed       SeedConfig       `json:"seed" yaml:"seed"`

	// Sources maps a dotted key such as "server.addr" to the layer that set it.
	Sources map[string]string `json:"-" yaml:"-"`
}

// ServerConfig configures the HTTP listener. Timeouts are in seconds.
type ServerConfig struct {
	Addr            string `json:"addr" yaml:"addr"`
	ReadTimeout     int    `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    int    `json:"writeTimeout" yaml:"writeTimeout"`
	ShutdownTimeout int    `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	MaxBodyBytes    int64  `json:"maxBodyBytes" yaml:"maxBodyBytes"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is a file path or ":memory:".
	Path          string `json:"path" yaml:"path"`
	MaxOpenConns  int    `json:"maxOpenConns" yaml:"maxOpenConns"`
	BusyTimeoutMs int    `json:"busyTimeoutMs" yaml:"busyTimeoutMs"`
}

// PaginationConfig configures list paging.
type PaginationConfig struct {
	DefaultPageSize int `json:"defaultPageSize" yaml:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize" yaml:"maxPageSize"`
	// NextPage is "lookahead" or "full_page".
	NextPage string `json:"nextPage" yaml:"nextPage"`
}

// LimitsConfig overrides domain length ceilings.
type LimitsConfig struct {
	NameMaxLength         int `json:"nameMaxLength" yaml:"nameMaxLength"`
	PolicyNumberMaxLength int `json:"policyNumberMaxLength" yaml:"policyNumberMaxLength"`
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	// File additionally receives every record as JSON when set.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// SeedConfig configures fixture data.
type SeedConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Seed makes fixture generation reproducible. Zero picks a random seed.
	Seed int64 `json:"seed" yaml:"seed"`

	Accounts       int `json:"accounts" yaml:"accounts"`
	Transactions   int `json:"transactions" yaml:"transactions"`
	VRPs           int `json:"vrps" yaml:"vrps"`
	MedicalInsured int `json:"medicalInsured" yaml:"medicalInsured"`
	Documents      int `json:"documents" yaml:"documents"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
			MaxBodyBytes:    1 << 20,
		},
		Database: DatabaseConfig{
			Path:          "bankmock.db",
			MaxOpenConns:  8,
			BusyTimeoutMs: 5000,
		},
		Pagination: PaginationConfig{
			DefaultPageSize: resource.DefaultPageSize,
			MaxPageSize:     resource.MaxPageSize,
			NextPage:        string(resource.NextPageLookahead),
		},
		Limits: LimitsConfig{
			NameMaxLength:         resource.MaxNameLength,
			PolicyNumberMaxLength: resource.MaxPolicyLength,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Seed: SeedConfig{
			Accounts:       10,
			Transactions:   20,
			VRPs:           5,
			MedicalInsured: 5,
			Documents:      5,
		},
		Sources: make(map[string]string),
	}
}
