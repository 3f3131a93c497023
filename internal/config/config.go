package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vango-dev/waypoint/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "waypoint.toml"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "WAYPOINT_"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "localhost:7070"

	// DefaultMaxRedirects is the default redirect limit.
	DefaultMaxRedirects = 10

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "waypoint"
)

// History modes.
const (
	ModeWeb  = "web"
	ModeHash = "hash"
)

// Config is the complete waypoint configuration.
type Config struct {
	History HistoryConfig `koanf:"history"`
	Routes  RoutesConfig  `koanf:"routes"`
	Router  RouterConfig  `koanf:"router"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Tracing TracingConfig `koanf:"tracing"`
	Inspect InspectConfig `koanf:"inspect"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// HistoryConfig selects the history adapter.
type HistoryConfig struct {
	// Mode is "web" (path based) or "hash" (fragment based).
	Mode string `koanf:"mode"`

	// Base is the prefix of every history URL.
	Base string `koanf:"base"`

	// Initial is the starting URL of in-memory histories.
	Initial string `koanf:"initial"`
}

// RoutesConfig locates the route table.
type RoutesConfig struct {
	// File is a YAML route table, relative to the config file.
	File string `koanf:"file"`

	// S3Bucket and S3Key locate a route table in S3. They take precedence
	// over File when both are set.
	S3Bucket   string `koanf:"s3_bucket"`
	S3Key      string `koanf:"s3_key"`
	S3Region   string `koanf:"s3_region"`
	S3Endpoint string `koanf:"s3_endpoint"`
}

// RouterConfig tunes navigation.
type RouterConfig struct {
	MaxRedirects int `koanf:"max_redirects"`
}

// LogConfig configures the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig configures router metrics.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
}

// TracingConfig configures navigation spans.
type TracingConfig struct {
	// Tracer is the name passed to the global tracer provider.
	Tracer string `koanf:"tracer"`
}

// InspectConfig configures the inspector server.
type InspectConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		History: HistoryConfig{
			Mode:    ModeWeb,
			Initial: "/",
		},
		Routes: RoutesConfig{
			File:     "routes.yaml",
			S3Region: "us-east-1",
		},
		Router: RouterConfig{
			MaxRedirects: DefaultMaxRedirects,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			Tracer: "waypoint",
		},
		Inspect: InspectConfig{
			Addr:            DefaultInspectAddr,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// defaults returns New() as a flat koanf map.
func defaults() map[string]any {
	c := New()
	return map[string]any{
		"history.mode":             c.History.Mode,
		"history.base":             c.History.Base,
		"history.initial":          c.History.Initial,
		"routes.file":              c.Routes.File,
		"routes.s3_bucket":         c.Routes.S3Bucket,
		"routes.s3_key":            c.Routes.S3Key,
		"routes.s3_region":         c.Routes.S3Region,
		"routes.s3_endpoint":       c.Routes.S3Endpoint,
		"router.max_redirects":     c.Router.MaxRedirects,
		"log.level":                c.Log.Level,
		"log.format":               c.Log.Format,
		"metrics.enabled":          c.Metrics.Enabled,
		"metrics.namespace":        c.Metrics.Namespace,
		"tracing.tracer":           c.Tracing.Tracer,
		"inspect.addr":             c.Inspect.Addr,
		"inspect.shutdown_timeout": c.Inspect.ShutdownTimeout.String(),
	}
}

// Load reads configuration from waypoint.toml in dir. A missing file is not
// an error: defaults and environment overrides still apply.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return load("")
		}
		return nil, errors.New("W401").Wrap(err)
	}
	return load(path)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W401").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or drop the --config flag")
		}
		return nil, errors.New("W401").Wrap(err)
	}
	return load(path)
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.New("W401").WithDetail("loading defaults").Wrap(err)
	}

	// 2. Config file
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.New("W401").
				WithDetail("Failed to parse " + path).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid TOML").
				Wrap(err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, errors.New("W401").WithDetail("loading environment").Wrap(err)
	}

	// 4. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.New("W401").WithDetail("decoding configuration").Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in values that may not be left empty.
func (c *Config) applyDefaults() {
	if c.History.Initial == "" {
		c.History.Initial = "/"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.Tracer == "" {
		c.Tracing.Tracer = "waypoint"
	}
	c.History.Mode = strings.ToLower(c.History.Mode)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.History.Mode {
	case ModeWeb, ModeHash:
	default:
		return errors.New("W402").
			WithDetailf("history.mode = %q", c.History.Mode).
			WithSuggestion("Use \"web\" or \"hash\"")
	}
	if c.Router.MaxRedirects < 1 {
		return errors.New("W402").
			WithDetailf("router.max_redirects = %d", c.Router.MaxRedirects).
			WithSuggestion("max_redirects must be at least 1")
	}
	if _, ok := levels[c.Log.Level]; !ok {
		return errors.New("W402").
			WithDetailf("log.level = %q", c.Log.Level).
			WithSuggestion("Use debug, info, warn or error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("W402").
			WithDetailf("log.format = %q", c.Log.Format).
			WithSuggestion("Use \"text\" or \"json\"")
	}
	if (c.Routes.S3Bucket == "") != (c.Routes.S3Key == "") {
		return errors.New("W402").
			WithDetail("routes.s3_bucket and routes.s3_key must be set together")
	}
	if c.Inspect.ShutdownTimeout < 0 {
		return errors.New("W402").
			WithDetailf("inspect.shutdown_timeout = %s", c.Inspect.ShutdownTimeout)
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	if l, ok := levels[c.Log.Level]; ok {
		return l
	}
	return slog.LevelInfo
}

// UsesS3 reports whether the route table is loaded from S3.
func (c *Config) UsesS3() bool {
	return c.Routes.S3Bucket != "" && c.Routes.S3Key != ""
}

// RoutesPath returns the absolute path to the route table file.
func (c *Config) RoutesPath() string {
	if c.Routes.File == "" || filepath.IsAbs(c.Routes.File) || c.Dir() == "" {
		return c.Routes.File
	}
	return filepath.Join(c.Dir(), c.Routes.File)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// waypoint.toml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("W401").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the nearest waypoint.toml
// above the working directory, or defaults when there is none.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return load("")
	}

	return Load(root)
}
