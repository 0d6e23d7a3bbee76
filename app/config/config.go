package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"todo-tree/app/events"
	"todo-tree/app/generator"
	"todo-tree/app/logger"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverGorm     = "gorm"
	DriverSQLite   = "sqlite"
	DriverNeo4j    = "neo4j"
	DriverMemory   = "memory"
)

const (
	DefaultPort        = 3000
	DefaultDatabaseURL = "postgresql://localhost:5432/todo_db"
	DefaultOrigin      = "http://localhost:5173"
)

var configFiles = []string{"todo.yaml", "todo.yml", "todo.toml"}

type Config struct {
	Server    ServerConfig      `yaml:"server" toml:"server"`
	Storage   StorageConfig     `yaml:"storage" toml:"storage"`
	Neo4j     Neo4jConfig       `yaml:"neo4j" toml:"neo4j"`
	Events    events.AMQPConfig `yaml:"events" toml:"events"`
	Generator generator.Config  `yaml:"generator" toml:"generator"`
	Log       logger.Config     `yaml:"log" toml:"log"`
}

type ServerConfig struct {
	Port                   int      `yaml:"port" toml:"port"`
	CORSOrigins            []string `yaml:"cors_origins" toml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type StorageConfig struct {
	Driver         string `yaml:"driver" toml:"driver"`
	URL            string `yaml:"url" toml:"url"`
	MaxConnections int    `yaml:"max_connections" toml:"max_connections"`
	AutoMigrate    *bool  `yaml:"auto_migrate" toml:"auto_migrate"`
}

// Migrates reports whether the schema is created at startup. Defaults to true.
func (s StorageConfig) Migrates() bool {
	return s.AutoMigrate == nil || *s.AutoMigrate
}

type Neo4jConfig struct {
	URI      string `yaml:"uri" toml:"uri"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	Database string `yaml:"database" toml:"database"`
}

// Load reads the config file at path, or the first of todo.yaml, todo.yml and
// todo.toml found in the working directory. A .env file is loaded first, then
// environment variables override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}

	if path == "" {
		for _, candidate := range configFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config file %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	setString(&cfg.Storage.URL, "DATABASE_URL")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Neo4j.URI, "NEO4J_URI")
	setString(&cfg.Neo4j.Username, "NEO4J_USERNAME")
	setString(&cfg.Neo4j.Password, "NEO4J_PASSWORD")
	setString(&cfg.Events.URL, "AMQP_URL")
	setString(&cfg.Generator.APIKey, "OPEN_ROUTER_API_KEY")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.CORSOrigins = append(cfg.Server.CORSOrigins, origin)
			}
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{DefaultOrigin}
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.URL == "" {
		switch cfg.Storage.Driver {
		case DriverSQLite:
			cfg.Storage.URL = "todo.db"
		default:
			cfg.Storage.URL = DefaultDatabaseURL
		}
	}
	if cfg.Storage.MaxConnections == 0 {
		cfg.Storage.MaxConnections = 25
	}
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = "neo4j://localhost:7687"
	}
	if cfg.Neo4j.Username == "" {
		cfg.Neo4j.Username = "neo4j"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = generator.DefaultModel
	}
	if cfg.Generator.BaseURL == "" {
		cfg.Generator.BaseURL = generator.DefaultBaseURL
	}
	if cfg.Generator.TimeoutSeconds == 0 {
		cfg.Generator.TimeoutSeconds = 30
	}
	if cfg.Events.Exchange == "" {
		cfg.Events.Exchange = "todos"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate checks the settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverGorm, DriverSQLite, DriverNeo4j, DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Storage.MaxConnections < 1 {
		return fmt.Errorf("max_connections must be positive, got %d", c.Storage.MaxConnections)
	}
	return nil
}
