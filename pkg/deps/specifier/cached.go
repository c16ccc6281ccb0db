package specifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/pcc/pkg/cache"
	"github.com/matzehuels/pcc/pkg/observability"
)

const cacheKeyType = "specifiers"

// CachedParser memoizes a Source by file content. Syntax errors are never
// cached so a later fix to the grammar or the file is picked up. Cache
// failures fall through to a direct parse.
type CachedParser struct {
	inner Source
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration

	// Logger receives cache failures. Optional.
	Logger func(format string, args ...any)
}

// NewCached wraps inner with c. A zero ttl selects cache.DefaultTTL and a nil
// keyer selects cache.DefaultKeyer.
func NewCached(inner Source, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *CachedParser {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &CachedParser{inner: inner, cache: c, keyer: keyer, ttl: ttl}
}

// Parse implements Source.
func (p *CachedParser) Parse(ctx context.Context, path string, content []byte) ([]string, error) {
	lang := Language(path)
	if lang == "" {
		return nil, nil
	}
	key := p.keyer.SpecifierKey(content, lang)
	hooks := observability.Cache()

	data, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logf("cache get %s: %v", path, err)
	}
	if hit {
		var specs []string
		if err := json.Unmarshal(data, &specs); err == nil {
			hooks.OnCacheHit(ctx, cacheKeyType)
			return specs, nil
		}
		p.logf("cache entry for %s is corrupt, reparsing", path)
	}
	hooks.OnCacheMiss(ctx, cacheKeyType)

	specs, err := p.inner.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(specs); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			p.logf("cache set %s: %v", path, err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(data))
		}
	}
	return specs, nil
}

func (p *CachedParser) logf(format string, args ...any) {
	if p.Logger != nil {
		p.Logger(format, args...)
	}
}
