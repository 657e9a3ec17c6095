package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// Config describes the database connection.
type Config struct {
	// Path is a file path or MemoryPath.
	Path string
	// MaxOpenConns bounds the pool. It is forced to 1 for in-memory
	// databases, where each connection would otherwise see its own schema.
	MaxOpenConns int
	// BusyTimeoutMs is how long a writer waits on a locked file database.
	BusyTimeoutMs int
}

// IsMemory reports whether the config selects an in-memory database.
func (c Config) IsMemory() bool {
	return c.Path == "" || c.Path == MemoryPath || strings.HasPrefix(c.Path, "file::memory:")
}

// DSN renders the driver connection string.
func (c Config) DSN() string {
	if c.IsMemory() {
		return MemoryPath
	}
	timeout := c.BusyTimeoutMs
	if timeout <= 0 {
		timeout = 5000
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout))
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + c.Path + "?" + q.Encode()
}

// Open opens the pool and verifies the connection.
func Open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open(DriverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Path, err)
	}

	switch {
	case cfg.IsMemory():
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	case cfg.MaxOpenConns > 0:
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database %s: %w", cfg.Path, err)
	}
	return db, nil
}
