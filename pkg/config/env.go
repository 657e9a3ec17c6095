package config

import "fmt"

// Environment variable names
const (
	EnvConfig          = "BANKMOCK_CONFIG"
	EnvAddr            = "BANKMOCK_ADDR"
	EnvReadTimeout     = "BANKMOCK_READ_TIMEOUT"
	EnvWriteTimeout    = "BANKMOCK_WRITE_TIMEOUT"
	EnvDBPath          = "BANKMOCK_DB_PATH"
	EnvDBMaxOpenConns  = "BANKMOCK_DB_MAX_OPEN_CONNS"
	EnvPageSize        = "BANKMOCK_PAGE_SIZE"
	EnvMaxPageSize     = "BANKMOCK_MAX_PAGE_SIZE"
	EnvNextPage        = "BANKMOCK_NEXT_PAGE"
	EnvNameMaxLength   = "BANKMOCK_NAME_MAX_LENGTH"
	EnvPolicyMaxLength = "BANKMOCK_POLICY_MAX_LENGTH"
	EnvLogLevel        = "BANKMOCK_LOG_LEVEL"
	EnvLogFormat       = "BANKMOCK_LOG_FORMAT"
	EnvLogFile         = "BANKMOCK_LOG_FILE"
	EnvSeed            = "BANKMOCK_SEED"
	EnvSeedValue       = "BANKMOCK_SEED_VALUE"
)

var envKeys = []struct {
	env string
	key string
}{
	{EnvAddr, "server.addr"},
	{EnvReadTimeout, "server.readTimeout"},
	{EnvWriteTimeout, "server.writeTimeout"},
	{EnvDBPath, "database.path"},
	{EnvDBMaxOpenConns, "database.maxOpenConns"},
	{EnvPageSize, "pagination.defaultPageSize"},
	{EnvMaxPageSize, "pagination.maxPageSize"},
	{EnvNextPage, "pagination.nextPage"},
	{EnvNameMaxLength, "limits.nameMaxLength"},
	{EnvPolicyMaxLength, "limits.policyNumberMaxLength"},
	{EnvLogLevel, "log.level"},
	{EnvLogFormat, "log.format"},
	{EnvLogFile, "log.file"},
	{EnvSeed, "seed.enabled"},
	{EnvSeedValue, "seed.seed"},
}

// ApplyEnv overlays values from environment variables.
// It only sets values that are present in the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for _, e := range envKeys {
		v := getenv(e.env)
		if v == "" {
			continue
		}
		if err := c.Set(e.key, v, SourceEnv); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}
