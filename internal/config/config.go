// Package config loads docstore settings from a YAML file, an optional .env
// file and DOCSTORE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/docstore/internal/database"
	"github.com/koustreak/docstore/internal/errs"
	"github.com/koustreak/docstore/internal/logger"
)

// Environment variables consulted by Load.
const (
	EnvDriver    = "DOCSTORE_DB_DRIVER"
	EnvDSN       = "DOCSTORE_DB_DSN"
	EnvHost      = "DOCSTORE_DB_HOST"
	EnvPort      = "DOCSTORE_DB_PORT"
	EnvUser      = "DOCSTORE_DB_USER"
	EnvPassword  = "DOCSTORE_DB_PASSWORD"
	EnvName      = "DOCSTORE_DB_NAME"
	EnvLogLevel  = "DOCSTORE_LOG_LEVEL"
	EnvLogFormat = "DOCSTORE_LOG_FORMAT"
)

// Config is the file layout.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logger   logger.Config  `yaml:"logger"`
}

// DatabaseConfig mirrors database.Config with YAML names.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// Default returns the settings used when nothing else is given: an in-memory
// SQLite database and JSON logs at info level.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          string(database.DriverSQLite),
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  10 * time.Second,
			QueryTimeout:    30 * time.Second,
		},
		Logger: *logger.DefaultConfig(),
	}
}

// Load reads path over Default, then applies .env and environment overrides.
// An empty path skips the file. A missing .env is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config", err)
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile exports the variables in file without overriding ones already
// set. A missing file is ignored.
func LoadEnvFile(file string) error {
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to load env file", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Database.Driver, EnvDriver)
	setString(&c.Database.DSN, EnvDSN)
	setString(&c.Database.Host, EnvHost)
	setString(&c.Database.User, EnvUser)
	setString(&c.Database.Password, EnvPassword)
	setString(&c.Database.Name, EnvName)
	setString(&c.Logger.Level, EnvLogLevel)
	setString(&c.Logger.Format, EnvLogFormat)

	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, EnvPort+" must be an integer", err)
		}
		c.Database.Port = port
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate checks the driver name and numeric bounds.
func (c *Config) Validate() error {
	if _, err := database.Driver(c.Database.Driver).Dialect(); err != nil {
		return err
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return errs.Newf(errs.ErrKindInvalidInput, "database.port %d out of range", c.Database.Port)
	}
	if c.Database.MaxConns < 0 || c.Database.MinConns < 0 {
		return errs.New(errs.ErrKindInvalidInput, "database pool sizes must not be negative")
	}
	return nil
}

// DatabaseConfig converts the database section for the drivers.
func (c *Config) DatabaseConfig() *database.Config {
	d := c.Database
	return &database.Config{
		Driver:          database.Driver(d.Driver),
		DSN:             d.DSN,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Name,
		SSLMode:         d.SSLMode,
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
		ConnectTimeout:  d.ConnectTimeout,
		QueryTimeout:    d.QueryTimeout,
	}
}

// LoggerConfig returns the logger section.
func (c *Config) LoggerConfig() *logger.Config {
	l := c.Logger
	return &l
}
