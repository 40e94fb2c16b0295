package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
	layouts    = []string{"general", "enumerated", "inline"}
	drivers    = []string{DriverNDJSON, DriverPostgres, DriverSQLite}
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := oneOf("log.level", strings.ToLower(c.Log.Level), logLevels); err != nil {
		return err
	}
	if err := oneOf("log.format", strings.ToLower(c.Log.Format), logFormats); err != nil {
		return err
	}
	if err := oneOf("import.layout", strings.ToLower(c.Import.Layout), layouts); err != nil {
		return err
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("import.batch_size must be > 0 (got %d)", c.Import.BatchSize)
	}
	if err := c.Store.validate(c.Database); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.Script.CacheSize < 0 {
		return fmt.Errorf("script.cache_size must be >= 0 (got %d)", c.Script.CacheSize)
	}
	if c.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batch_size must be > 0 (got %d)", c.Index.BatchSize)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0 (got %s)", c.Server.ShutdownTimeout)
	}
	if c.GraphQL.ComplexityLimit <= 0 {
		return fmt.Errorf("graphql.complexity_limit must be > 0 (got %d)", c.GraphQL.ComplexityLimit)
	}
	return nil
}

func (s StoreConfig) validate(db DatabaseConfig) error {
	if err := oneOf("driver", s.Driver, drivers); err != nil {
		return err
	}
	switch s.Driver {
	case DriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", s.Driver)
		}
		if db.MaxConns <= 0 || db.MinConns < 0 || db.MinConns > db.MaxConns {
			return fmt.Errorf("database pool limits out of range (min %d, max %d)", db.MinConns, db.MaxConns)
		}
	default:
		if s.Path == "" {
			return fmt.Errorf("path is required for the %s driver", s.Driver)
		}
	}
	return nil
}

func oneOf(field, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("%s must be one of %s (got %q)", field, strings.Join(allowed, ", "), value)
	}
	return nil
}
