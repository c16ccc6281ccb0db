package depgraph

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pcc/pkg/deps/specifier"
)

// loaded is the outcome of reading and parsing one file.
type loaded struct {
	specs    []string
	readErr  error
	parseErr error
}

// loader reads and parses files at most once per build. Concurrent requests
// for the same file share one load.
type loader struct {
	read    func(string) ([]byte, error)
	parser  specifier.Source
	workers int

	group singleflight.Group
	mu    sync.Mutex
	done  map[FileID]loaded
}

func newLoader(read func(string) ([]byte, error), parser specifier.Source, workers int) *loader {
	return &loader{read: read, parser: parser, workers: workers, done: make(map[FileID]loaded)}
}

// load returns the specifiers of id, loading it if no earlier call did.
func (l *loader) load(ctx context.Context, id FileID) loaded {
	l.mu.Lock()
	r, ok := l.done[id]
	l.mu.Unlock()
	if ok {
		return r
	}

	v, _, _ := l.group.Do(string(id), func() (any, error) {
		r := l.loadOnce(ctx, id)
		l.mu.Lock()
		l.done[id] = r
		l.mu.Unlock()
		return r, nil
	})
	return v.(loaded)
}

func (l *loader) loadOnce(ctx context.Context, id FileID) loaded {
	content, err := l.read(string(id))
	if err != nil {
		return loaded{readErr: err}
	}
	specs, err := l.parser.Parse(ctx, string(id), content)
	return loaded{specs: specs, parseErr: err}
}

// prefetch loads ids concurrently and waits for all of them. It is a no-op
// for a single worker.
func (l *loader) prefetch(ctx context.Context, ids []FileID) {
	if l.workers <= 1 || len(ids) == 0 {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			l.load(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
}
