package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Import   ImportConfig   `yaml:"import"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Script   ScriptConfig   `yaml:"script"`
	Index    IndexConfig    `yaml:"index"`
	Server   ServerConfig   `yaml:"server"`
	GraphQL  GraphQLConfig  `yaml:"graphql"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ImportConfig holds conversion settings.
type ImportConfig struct {
	Layout    string `yaml:"layout"     env:"IMPORT_LAYOUT"     env-default:"general"`
	SourceTag string `yaml:"source_tag" env:"IMPORT_SOURCE_TAG"`
	// DiagnosticsPath receives one line per diagnostic; "-" means stderr.
	DiagnosticsPath string `yaml:"diagnostics_path" env:"IMPORT_DIAGNOSTICS_PATH" env-default:"-"`
	BatchSize       int    `yaml:"batch_size"       env:"IMPORT_BATCH_SIZE"       env-default:"500"`
	DryRun          bool   `yaml:"dry_run"          env:"IMPORT_DRY_RUN"`
}

// Store drivers.
const (
	DriverNDJSON   = "ndjson"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StoreConfig selects where converted entries go.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"ndjson"`
	// Path is the ndjson file or the sqlite database file.
	Path string `yaml:"path" env:"STORE_PATH" env-default:"dict.ndjson"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// ScriptConfig holds script-variant conversion settings.
type ScriptConfig struct {
	Profile   string `yaml:"profile"    env:"SCRIPT_PROFILE"    env-default:"t2s"`
	CacheSize int    `yaml:"cache_size" env:"SCRIPT_CACHE_SIZE" env-default:"4096"`
}

// IndexConfig holds search index settings.
type IndexConfig struct {
	Path      string `yaml:"path"       env:"INDEX_PATH"       env-default:"dict.bleve"`
	BatchSize int    `yaml:"batch_size" env:"INDEX_BATCH_SIZE" env-default:"10000"`
}

// ServerConfig holds HTTP server settings for the query server.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// GraphQLConfig holds query server limits.
type GraphQLConfig struct {
	ComplexityLimit int `yaml:"complexity_limit" env:"GRAPHQL_COMPLEXITY_LIMIT" env-default:"500"`
}
