// Package config loads pcc's user configuration.
//
// Settings come from four layers, highest precedence first: command-line
// flags (applied by the caller), PCC_* environment variables (a .env file in
// the working directory is loaded first), the TOML config file, and built-in
// defaults. A missing config file is not an error.
//
// Example ~/.pcc_config.toml:
//
//	[default]
//	action = "copy"
//	ignore_patterns = ["dist/", "*.test.ts"]
//	deps = true
//
//	[resolve]
//	tsconfig = "tsconfig.json"
//	external = ["@company/ui"]
//
//	[resolve.aliases]
//	"@app/*" = "src/*"
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvConfig   = "PCC_CONFIG"
	EnvAction   = "PCC_ACTION"
	EnvFormat   = "PCC_FORMAT"
	EnvRedisURL = "PCC_REDIS_URL"
)

// DefaultOutputFileName is used when saving without an explicit path.
const DefaultOutputFileName = "combined_code.txt"

// Actions.
const (
	ActionCopy  = "copy"
	ActionSave  = "save"
	ActionPrint = "print"
)

// Output formats.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Duration is a time.Duration read from a TOML string such as "72h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the merged configuration.
type Config struct {
	Default Defaults      `toml:"default"`
	Resolve ResolveConfig `toml:"resolve"`
	Cache   CacheConfig   `toml:"cache"`

	// Source is the file the configuration was read from, or "" when only
	// defaults and environment were used.
	Source string `toml:"-"`

	// Unknown lists keys in the file that pcc does not recognize.
	Unknown []string `toml:"-"`
}

// Defaults is the [default] section.
type Defaults struct {
	Action           string   `toml:"action"`
	OutputPath       string   `toml:"output_path"`
	OutputFileName   string   `toml:"output_file_name"`
	IgnorePatterns   []string `toml:"ignore_patterns"`
	UseRelativePaths *bool    `toml:"use_relative_paths"`
	Deps             bool     `toml:"deps"`
	Format           string   `toml:"format"`
}

// RelativePaths reports whether output should use paths relative to the
// working directory. Defaults to true.
func (d Defaults) RelativePaths() bool {
	return d.UseRelativePaths == nil || *d.UseRelativePaths
}

// ResolveConfig is the [resolve] section.
type ResolveConfig struct {
	Extensions   []string          `toml:"extensions"`
	External     []string          `toml:"external"`
	TSConfig     string            `toml:"tsconfig"`
	ReportMisses bool              `toml:"report_misses"`
	Workers      int               `toml:"workers"`
	Aliases      map[string]string `toml:"aliases"`
}

// CacheConfig is the [cache] section.
type CacheConfig struct {
	Enabled  *bool    `toml:"enabled"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// IsEnabled reports whether the specifier cache is on. Defaults to true.
func (c CacheConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Default: Defaults{
			Format:         FormatXML,
			OutputFileName: DefaultOutputFileName,
		},
	}
}

// Load reads .env, locates the config file and applies environment
// overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// Path returns the config file location: $PCC_CONFIG, then
// ~/.pcc_config.toml, then $XDG_CONFIG_HOME/pcc/config.toml. When none
// exists the home-directory path is returned.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return ExpandHome(p)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	primary := filepath.Join(home, ".pcc_config.toml")
	if fileExists(primary) {
		return primary, nil
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".config")
	}
	if alt := filepath.Join(xdg, "pcc", "config.toml"); fileExists(alt) {
		return alt, nil
	}
	return primary, nil
}

// LoadFile decodes the TOML file at path over the defaults. A missing file
// yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Source = path
	for _, k := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, k.String())
	}
	if cfg.Default.OutputFileName == "" {
		cfg.Default.OutputFileName = DefaultOutputFileName
	}
	if cfg.Default.Format == "" {
		cfg.Default.Format = FormatXML
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvAction)); v != "" {
		c.Default.Action = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvFormat)); v != "" {
		c.Default.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(getenv(EnvRedisURL)); v != "" {
		c.Cache.RedisURL = v
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if a := c.Default.Action; a != "" && !slices.Contains([]string{ActionCopy, ActionSave, ActionPrint}, a) {
		return fmt.Errorf("invalid action %q: want copy, save or print", a)
	}
	if f := c.Default.Format; !slices.Contains([]string{FormatXML, FormatJSON, FormatYAML}, f) {
		return fmt.Errorf("invalid format %q: want xml, json or yaml", f)
	}
	if c.Resolve.Workers < 0 {
		return fmt.Errorf("invalid workers %d: must not be negative", c.Resolve.Workers)
	}
	if c.Cache.TTL.Duration < 0 {
		return fmt.Errorf("invalid cache ttl %s", c.Cache.TTL)
	}
	return nil
}

// OutputPath picks the file to save to: flag, then default.output_path,
// then cwd/default.output_file_name. "~" is expanded.
func (c *Config) OutputPath(flag, cwd string) (string, error) {
	switch {
	case flag != "":
		return ExpandHome(flag)
	case c.Default.OutputPath != "":
		return ExpandHome(c.Default.OutputPath)
	}
	name := c.Default.OutputFileName
	if name == "" {
		name = DefaultOutputFileName
	}
	return filepath.Join(cwd, name), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
