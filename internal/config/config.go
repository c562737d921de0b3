// Package config assembles notedrop's runtime configuration. Values come
// from an optional YAML config file and the environment (environment
// wins), are validated once at startup, and are passed explicitly into
// each component. No package reads the environment mid-pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"notedrop/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "notedrop"

// Environment variable names.
const (
	EnvNotionToken     = "NOTION_API_KEY"
	EnvDefaultDatabase = "NOTEDROP_DEFAULT_DATABASE"
	EnvAllowedDirs     = "NOTEDROP_ALLOWED_DIRS"
	EnvMaxFileSize     = "NOTEDROP_MAX_FILE_SIZE"
)

// DefaultMaxFileSize bounds a single file read: 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

// Config holds everything the server needs. Constructed once in main and
// handed to components by value.
type Config struct {
	// NotionToken authenticates against the Notion API. May be empty;
	// Notion-dependent tools then report a configuration error per call
	// instead of preventing startup.
	NotionToken string `yaml:"-"`

	// DefaultDatabaseID is used when a tool call omits database_id.
	DefaultDatabaseID string `yaml:"default_database"`

	// AllowedDirs are the base directories file reads are confined to.
	AllowedDirs []string `yaml:"allowed_dirs"`

	// MaxFileSize bounds a single file read, in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// fileConfig mirrors Config for the optional YAML file.
type fileConfig struct {
	DefaultDatabase string   `yaml:"default_database"`
	AllowedDirs     []string `yaml:"allowed_dirs"`
	MaxFileSize     int64    `yaml:"max_file_size"`
}

// ConfigPath returns the standard config file location for the platform.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load builds the configuration: YAML file first (if present), then
// environment overrides, then defaults for anything still unset.
func Load(logger *logging.AppLogger) (Config, error) {
	cfg := Config{}

	path := ConfigPath()
	if fc, ok, err := loadFile(path); err != nil {
		return Config{}, err
	} else if ok {
		logger.Debug("Loaded config file", "path", path)
		cfg.DefaultDatabaseID = fc.DefaultDatabase
		cfg.AllowedDirs = fc.AllowedDirs
		cfg.MaxFileSize = fc.MaxFileSize
	}

	if v := os.Getenv(EnvDefaultDatabase); v != "" {
		cfg.DefaultDatabaseID = v
	}
	if v := os.Getenv(EnvAllowedDirs); v != "" {
		cfg.AllowedDirs = splitPathList(v)
	}
	maxSize, err := getEnvInt64(EnvMaxFileSize, cfg.MaxFileSize)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxFileSize = maxSize
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}

	if len(cfg.AllowedDirs) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot determine working directory for default allowed dir: %w", err)
		}
		cfg.AllowedDirs = []string{cwd}
	}

	cfg.NotionToken = ResolveNotionToken(logger)

	logger.Debug("Configuration assembled",
		"allowedDirs", cfg.AllowedDirs,
		"defaultDatabase", cfg.DefaultDatabaseID,
		"maxFileSize", cfg.MaxFileSize,
		"hasToken", cfg.NotionToken != "",
	)

	return cfg, nil
}

// loadFile reads the YAML config file. A missing file is not an error.
func loadFile(path string) (fileConfig, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, false, nil
		}
		return fileConfig{}, false, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&fc); err != nil {
		return fileConfig{}, false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, true, nil
}

// Save writes the non-secret parts of the config to the standard
// location. The Notion token never touches the file; it lives in the
// environment or the OS keyring.
func (c Config) Save() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	fc := fileConfig{
		DefaultDatabase: c.DefaultDatabaseID,
		AllowedDirs:     c.AllowedDirs,
		MaxFileSize:     c.MaxFileSize,
	}
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// splitPathList splits an env-style path list on the platform separator,
// dropping empty entries.
func splitPathList(v string) []string {
	var dirs []string
	for _, dir := range strings.Split(v, string(os.PathListSeparator)) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}
