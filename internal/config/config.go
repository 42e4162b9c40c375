package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for configuration fields.
const (
	DefaultConfigFile    = "fly.yml"
	DefaultEnvFile       = ".env"
	DefaultMigrationsDir = "./migrations"
	DefaultFormat        = "text"
)

// Environment variables read by MergeEnv.
const (
	EnvMigrateDir       = "MIGRATE_DIR"
	EnvDebug            = "DEBUG"
	EnvConnectionString = "PG_CONNECTION_STRING"
	EnvUser             = "PG_USER"
	EnvPassword         = "PG_PASSWORD"
	EnvHost             = "PG_HOST"
	EnvPort             = "PG_PORT"
	EnvDB               = "PG_DB"
)

// LookupFunc reports the value of an environment variable. os.LookupEnv
// satisfies it.
type LookupFunc func(key string) (string, bool)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL   string
	MigrationsDir string
	Debug         bool
	Format        string
}

// yamlConfig is the raw YAML file representation.
type yamlConfig struct {
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	Debug         bool   `yaml:"debug"`
	Format        string `yaml:"format"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir: DefaultMigrationsDir,
		Format:        DefaultFormat,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg := New()
	cfg.Debug = raw.Debug

	if raw.DatabaseURL != "" {
		cfg.DatabaseURL = raw.DatabaseURL
	}

	if raw.MigrationsDir != "" {
		cfg.MigrationsDir = raw.MigrationsDir
	}

	if raw.Format != "" {
		cfg.Format = raw.Format
	}

	return cfg, nil
}

// LoadDotEnv copies variables from a dotenv file into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// MergeEnv overrides config fields from the environment.
func MergeEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(EnvMigrateDir); ok && v != "" {
		cfg.MigrationsDir = v
	}

	if v, ok := lookup(EnvDebug); ok && v == "true" {
		cfg.Debug = true
	}

	dsn, err := ConnectionStringFromEnv(lookup)
	if err != nil {
		return err
	}

	if dsn != "" {
		cfg.DatabaseURL = dsn
	}

	return nil
}

// ConnectionStringFromEnv returns PG_CONNECTION_STRING if set, otherwise a
// URL assembled from PG_USER, PG_PASSWORD, PG_HOST, PG_PORT and PG_DB.
// It returns "" when none of those variables are set. Once any part is
// set, every part except PG_PASSWORD is required.
func ConnectionStringFromEnv(lookup LookupFunc) (string, error) {
	if v, ok := lookup(EnvConnectionString); ok {
		return v, nil
	}

	if !anySet(lookup, EnvUser, EnvPassword, EnvHost, EnvPort, EnvDB) {
		return "", nil
	}

	user, err := require(lookup, EnvUser)
	if err != nil {
		return "", err
	}

	password, hasPassword := lookup(EnvPassword)

	host, err := require(lookup, EnvHost)
	if err != nil {
		return "", err
	}

	portStr, err := require(lookup, EnvPort)
	if err != nil {
		return "", err
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", fmt.Errorf("%w %s", ErrBadEnvFormat, EnvPort)
	}

	db, err := require(lookup, EnvDB)
	if err != nil {
		return "", err
	}

	u := &url.URL{
		Scheme: "postgresql",
		User:   url.User(user),
		Host:   net.JoinHostPort(host, strconv.FormatUint(port, 10)),
		Path:   "/" + db,
	}

	if hasPassword {
		u.User = url.UserPassword(user, password)
	}

	return u.String(), nil
}

// RequireDatabaseURL reports a missing connection target the way the
// environment variables would have named it.
func (c *Config) RequireDatabaseURL() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w %s not set", ErrMissingEnv, EnvConnectionString)
	}

	return nil
}

func require(lookup LookupFunc, key string) (string, error) {
	v, ok := lookup(key)
	if !ok {
		return "", fmt.Errorf("%w %s not set", ErrMissingEnv, key)
	}

	return v, nil
}

func anySet(lookup LookupFunc, keys ...string) bool {
	for _, k := range keys {
		if _, ok := lookup(k); ok {
			return true
		}
	}

	return false
}
