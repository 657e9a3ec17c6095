package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/bankmock/pkg/resource"
)

// ValidationError is one invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every invalid value, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		bad("server.addr", "must not be empty")
	}
	if c.Server.ReadTimeout < 0 {
		bad("server.readTimeout", "must not be negative")
	}
	if c.Server.WriteTimeout < 0 {
		bad("server.writeTimeout", "must not be negative")
	}
	if c.Server.ShutdownTimeout < 0 {
		bad("server.shutdownTimeout", "must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		bad("server.maxBodyBytes", "must be positive")
	}

	if c.Database.Path == "" {
		bad("database.path", "must not be empty; use %q for an in-memory database", ":memory:")
	}
	if c.Database.MaxOpenConns < 0 {
		bad("database.maxOpenConns", "must not be negative")
	}

	if c.Pagination.MaxPageSize < 1 {
		bad("pagination.maxPageSize", "must be at least 1")
	}
	if c.Pagination.DefaultPageSize < 1 || c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		bad("pagination.defaultPageSize", "must be between 1 and maxPageSize (%d)", c.Pagination.MaxPageSize)
	}
	if _, err := resource.ParseNextPagePolicy(c.Pagination.NextPage); err != nil {
		bad("pagination.nextPage", "must be %q or %q", resource.NextPageLookahead, resource.NextPageFullPage)
	}

	if c.Limits.NameMaxLength < 1 {
		bad("limits.nameMaxLength", "must be at least 1")
	}
	if c.Limits.PolicyNumberMaxLength < 1 {
		bad("limits.policyNumberMaxLength", "must be at least 1")
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		bad("log.format", "must be text or json")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		bad("log.level", "must be debug, info, warn or error")
	}

	for field, n := range map[string]int{
		"seed.accounts":       c.Seed.Accounts,
		"seed.transactions":   c.Seed.Transactions,
		"seed.vrps":           c.Seed.VRPs,
		"seed.medicalInsured": c.Seed.MedicalInsured,
		"seed.documents":      c.Seed.Documents,
	} {
		if n < 0 {
			bad(field, "must not be negative")
		}
	}

	return errors.Join(errs...)
}
