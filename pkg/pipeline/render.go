package pipeline

import (
	"bytes"
	"context"

	"github.com/matzehuels/pcc/pkg/cache"
	"github.com/matzehuels/pcc/pkg/depgraph"
	"github.com/matzehuels/pcc/pkg/document"
	"github.com/matzehuels/pcc/pkg/errors"
	"github.com/matzehuels/pcc/pkg/io"
	"github.com/matzehuels/pcc/pkg/observability"
	"github.com/matzehuels/pcc/pkg/render/nodelink"
)

const renderKeyType = "render"

// Encode serializes a document in the given format.
func Encode(doc *document.Document, format string) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := document.Encode(&buf, doc, format); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
	}
	return buf.Bytes(), nil
}

// RenderGraph renders an import graph as DOT source, SVG or JSON. SVG
// output is cached by the hash of its DOT source.
func (r *Runner) RenderGraph(ctx context.Context, g *depgraph.Graph, format string, opts nodelink.Options) ([]byte, error) {
	if err := ValidateGraphFormat(format); err != nil {
		return nil, err
	}

	switch format {
	case GraphFormatJSON:
		var buf bytes.Buffer
		if err := io.WriteJSON(g, &buf); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
		}
		return buf.Bytes(), nil
	case GraphFormatDOT:
		return []byte(nodelink.ToDOT(g, opts)), nil
	}

	dot := nodelink.ToDOT(g, opts)
	hooks := observability.Cache()
	key := r.Keyer.RenderKey(cache.Hash([]byte(dot)), format)
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, renderKeyType)
		return data, nil
	} else if err != nil {
		r.Logger.Warnf("render cache read: %v", err)
	}
	hooks.OnCacheMiss(ctx, renderKeyType)

	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	if err := r.Cache.Set(ctx, key, svg, cache.DefaultTTL); err != nil {
		r.Logger.Warnf("render cache write: %v", err)
	} else {
		hooks.OnCacheSet(ctx, renderKeyType, len(svg))
	}
	return svg, nil
}
