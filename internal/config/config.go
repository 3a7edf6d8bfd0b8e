// Package config provides configuration management for Heimdex Studio.
// Values come from defaults, an optional TOML file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// Default values
	DefaultPort          = 8787
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "auto"
	DefaultDataDir       = ".heimdex-studio"
	DefaultRenderTimeout = 60 // seconds
	DefaultHistoryLimit  = 200

	// Environment variable names
	EnvConfigFile    = "HEIMDEX_STUDIO_CONFIG"
	EnvPort          = "HEIMDEX_STUDIO_PORT"
	EnvLogLevel      = "HEIMDEX_STUDIO_LOG_LEVEL"
	EnvLogFormat     = "HEIMDEX_STUDIO_LOG_FORMAT"
	EnvDataDir       = "HEIMDEX_STUDIO_DATA_DIR"
	EnvRenderURL     = "HEIMDEX_STUDIO_RENDER_URL"
	EnvRenderToken   = "HEIMDEX_STUDIO_RENDER_TOKEN"
	EnvRenderTimeout = "HEIMDEX_STUDIO_RENDER_TIMEOUT"
	EnvHeadless      = "HEIMDEX_STUDIO_HEADLESS"
	EnvHistoryLimit  = "HEIMDEX_STUDIO_HISTORY_LIMIT"

	// Database filename
	DBFilename = "studio.db"
	// Lock file guarding the data directory
	LockFilename = "studio.lock"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFormat() string
	DataDir() string
	DBPath() string
	LockPath() string
	RenderURL() string
	RenderToken() string
	RenderTimeout() time.Duration
	Headless() bool
	HistoryLimit() int
}

// fileConfig mirrors the optional TOML file. Zero values leave the default
// in place.
type fileConfig struct {
	Port      int    `toml:"port"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	DataDir   string `toml:"data_dir"`
	Headless  *bool  `toml:"headless"`
	History   struct {
		Limit int `toml:"limit"`
	} `toml:"history"`
	Render struct {
		URL            string `toml:"url"`
		Token          string `toml:"token"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
	} `toml:"render"`
}

// EnvConfig holds the resolved configuration
type EnvConfig struct {
	port          int
	logLevel      string
	logFormat     string
	dataDir       string
	renderURL     string
	renderToken   string
	renderTimeout time.Duration
	headless      bool
	historyLimit  int

	file string
}

// New creates a new EnvConfig with defaults, then applies the TOML file
// named by HEIMDEX_STUDIO_CONFIG, then .env, then the environment.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		logFormat:     DefaultLogFormat,
		dataDir:       defaultDataDir(),
		renderTimeout: DefaultRenderTimeout * time.Second,
		historyLimit:  DefaultHistoryLimit,
	}

	// .env never overrides variables already set in the process
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		if err := validPort(fc.Port); err != nil {
			return fmt.Errorf("invalid port in %s: %w", path, err)
		}
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.logFormat = fc.LogFormat
	}
	if fc.DataDir != "" {
		c.dataDir = fc.DataDir
	}
	if fc.Headless != nil {
		c.headless = *fc.Headless
	}
	if fc.History.Limit < 0 {
		return fmt.Errorf("invalid history.limit in %s: must not be negative", path)
	}
	if fc.History.Limit > 0 {
		c.historyLimit = fc.History.Limit
	}
	if fc.Render.URL != "" {
		c.renderURL = fc.Render.URL
	}
	if fc.Render.Token != "" {
		c.renderToken = fc.Render.Token
	}
	if fc.Render.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid render.timeout_seconds in %s: must not be negative", path)
	}
	if fc.Render.TimeoutSeconds > 0 {
		c.renderTimeout = time.Duration(fc.Render.TimeoutSeconds) * time.Second
	}
	c.file = path
	return nil
}

func (c *EnvConfig) applyEnv() error {
	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if err := validPort(port); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}
	if lf := os.Getenv(EnvLogFormat); lf != "" {
		c.logFormat = lf
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.dataDir = dd
	}
	if u := os.Getenv(EnvRenderURL); u != "" {
		c.renderURL = strings.TrimRight(u, "/")
	}
	if tok := os.Getenv(EnvRenderToken); tok != "" {
		c.renderToken = tok
	}

	if rt := os.Getenv(EnvRenderTimeout); rt != "" {
		d, err := time.ParseDuration(rt)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRenderTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s: must be positive", EnvRenderTimeout)
		}
		c.renderTimeout = d
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.headless = headless
	}

	if hl := os.Getenv(EnvHistoryLimit); hl != "" {
		limit, err := strconv.Atoi(hl)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHistoryLimit, err)
		}
		if limit < 0 {
			return fmt.Errorf("invalid %s: must not be negative", EnvHistoryLimit)
		}
		c.historyLimit = limit
	}
	return nil
}

func validPort(port int) error {
	if port < 1 || port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// LogFormat returns json, text or auto.
func (c *EnvConfig) LogFormat() string {
	return c.logFormat
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

func (c *EnvConfig) LockPath() string {
	return filepath.Join(c.dataDir, LockFilename)
}

// RenderURL is the render service base URL. Empty selects the stub client.
func (c *EnvConfig) RenderURL() string {
	return c.renderURL
}

func (c *EnvConfig) RenderToken() string {
	return c.renderToken
}

func (c *EnvConfig) RenderTimeout() time.Duration {
	return c.renderTimeout
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// HistoryLimit caps undo snapshots per project; 0 means unlimited.
func (c *EnvConfig) HistoryLimit() int {
	return c.historyLimit
}

// File returns the TOML file that was applied, if any.
func (c *EnvConfig) File() string {
	return c.file
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
