package cli

import (
	"context"
	"time"

	"github.com/matzehuels/pcc/pkg/depgraph"
	"github.com/matzehuels/pcc/pkg/observability"
)

// logHooks logs graph builds and cache traffic at debug level, using the
// logger attached to the context.
type logHooks struct{}

func (logHooks) OnBuildStart(ctx context.Context, entries int) {
	loggerFromContext(ctx).Debug("building import graph", "entries", entries)
}

func (logHooks) OnFileVisit(ctx context.Context, path string, specifiers int) {
	loggerFromContext(ctx).Debug("visited", "file", path, "specifiers", specifiers)
}

func (logHooks) OnBuildComplete(ctx context.Context, s observability.BuildStats, d time.Duration, err error) {
	if err != nil {
		loggerFromContext(ctx).Debug("build aborted", "err", err, "duration", d)
		return
	}
	loggerFromContext(ctx).Debug("build complete",
		"entries", s.Entries,
		"dependencies", s.Dependencies,
		"edges", s.Edges,
		"cycles", s.Cycles,
		"diagnostics", s.Diagnostics,
		"duration", d)
}

func (logHooks) OnCacheHit(ctx context.Context, keyType string) {
	loggerFromContext(ctx).Debug("cache hit", "type", keyType)
}

func (logHooks) OnCacheMiss(ctx context.Context, keyType string) {
	loggerFromContext(ctx).Debug("cache miss", "type", keyType)
}

func (logHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	loggerFromContext(ctx).Debug("cache set", "type", keyType, "bytes", size)
}

// logDiagnostic reports a build diagnostic. Cycles and unreadable files are
// warnings; the rest is informational.
func (c *CLI) logDiagnostic(d depgraph.Diagnostic) {
	switch d.Kind {
	case depgraph.CycleDetected:
		c.Logger.Warn("circular import", "from", d.File, "to", d.Target)
	case depgraph.ReadWarning:
		c.Logger.Warn("could not read file", "file", d.File, "err", d.Err)
	case depgraph.ParseWarning:
		c.Logger.Warn("could not parse file", "file", d.File, "err", d.Err)
	case depgraph.ResolutionMiss:
		c.Logger.Info("unresolved import", "file", d.File, "specifier", d.Specifier)
	default:
		c.Logger.Info(d.String())
	}
}
