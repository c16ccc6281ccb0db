// Package cli implements the pcc command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pcc/pkg/buildinfo"
	"github.com/matzehuels/pcc/pkg/cache"
	"github.com/matzehuels/pcc/pkg/config"
	"github.com/matzehuels/pcc/pkg/observability"
	"github.com/matzehuels/pcc/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pcc"

	// redisKeyPrefix scopes keys in a shared Redis instance.
	redisKeyPrefix = "pcc:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Stdout receives printed documents and graphs.
	Stdout io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdout: os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself combines files.
func (c *CLI) RootCommand() *cobra.Command {
	root := c.combineCommand()
	root.Version = buildinfo.Version
	root.SilenceUsage = true
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		observability.SetBuildHooks(logHooks{})
		observability.SetCacheHooks(logHooks{})
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) *pipeline.Runner {
	store, keyer := c.newCache(ctx, cfg, noCache)
	return pipeline.NewRunner(store, keyer, c.Logger)
}

// newCache picks Redis when a URL is configured, else the file cache.
// Failures degrade to a weaker cache instead of failing the run.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer) {
	if noCache || !cfg.Cache.IsEnabled() {
		return cache.NewNullCache(), nil
	}
	if url := cfg.Cache.RedisURL; url != "" {
		rc, err := cache.NewRedisCache(ctx, url)
		if err == nil {
			c.Logger.Debug("using redis cache")
			return rc, cache.NewScopedKeyer(nil, redisKeyPrefix)
		}
		c.Logger.Warnf("Redis cache unavailable, using file cache: %v", err)
	}
	dir, err := cacheDirFor(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warnf("File cache unavailable: %v", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pcc/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// cacheDirFor returns cache.dir from the config, else cacheDir.
func cacheDirFor(cfg *config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return config.ExpandHome(cfg.Cache.Dir)
	}
	return cacheDir()
}
