package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/names"
	"github.com/matzehuels/flowview/pkg/observability"
	"github.com/matzehuels/flowview/pkg/sankey"
	"github.com/matzehuels/flowview/pkg/sankey/route"
)

// BuildDiagram computes the diagram for doc. Building cannot fail once the
// options are valid; anomalous edges are dropped and counted.
func BuildDiagram(ctx context.Context, doc flow.Document, opts Options) (sankey.Diagram, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return sankey.Diagram{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, len(doc.Edges))
	start := time.Now()

	sopts := []sankey.Option{
		sankey.WithTitle(opts.title(doc)),
		sankey.WithResolver(names.Map(opts.names(doc))),
		sankey.WithConfig(opts.Canvas),
		sankey.WithTheme(opts.Theme),
	}
	if opts.MinLinkWidth > 0 {
		sopts = append(sopts, sankey.WithRouteOptions(route.WithMinWidth(opts.MinLinkWidth)))
	}
	d := sankey.Build(doc.Edges, sopts...)

	hooks.OnBuildComplete(ctx, len(d.Nodes), len(d.Links), time.Since(start), nil)
	if d.Dropped > 0 {
		opts.Logger.Warn("dropped edges", "count", d.Dropped, "reason", "self loop or non-positive quantity")
	}
	return d, nil
}
