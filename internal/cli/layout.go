package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/pipeline"
	"github.com/matzehuels/flowview/pkg/sankey"
)

// layoutCommand creates the layout command, which builds a diagram without
// rendering it.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags renderFlags
		opts  pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [edges file | -]",
		Short: "Compute a flow diagram and write it as JSON",
		Long: `Compute a flow diagram from an edge list.

The result (<input>.diagram.json by default) holds every node rectangle and
link path. Render it later with 'render' or inspect it with 'explore'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			base := optionsFromConfig(cfg)
			base.Title = opts.Title
			if opts.MinLinkWidth > 0 {
				base.MinLinkWidth = opts.MinLinkWidth
			}
			if flags.width > 0 {
				base.Canvas.Width = flags.width
			}
			base.Refresh = flags.refresh
			if err := setInput(&base, args[0], flags.inputFormat, cmd.InOrStdin()); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], base, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>"+diagramSuffix+")")
	cmd.Flags().StringVar(&flags.inputFormat, "input-format", "", "input format: json, yaml, toml, csv (default: from extension)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().Float64Var(&flags.width, "width", 0, "canvas width (default from config)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "diagram title (overrides the document's)")
	cmd.Flags().Float64Var(&opts.MinLinkWidth, "min-link-width", 0, "minimum link thickness")

	return cmd
}

// runLayout decodes and builds the diagram, then writes it to disk.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	doc, err := runner.Decode(ctx, opts)
	if err != nil {
		return err
	}
	d, hit, err := runner.BuildWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return err
	}
	prog.done("Built diagram")

	path := flags.output
	if path == "" {
		path = basePath("", input) + diagramSuffix
	}
	if err := sankey.WriteDiagramFile(d, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	printSuccess("Laid out %s", diagramLabel(d, input))
	printFile(path)
	printStats(pipeline.Stats{
		EdgeCount:    len(doc.Edges),
		NodeCount:    len(d.Nodes),
		LinkCount:    len(d.Links),
		DroppedEdges: d.Dropped,
	}, hit)
	fmt.Fprintln(out)
	printNextStep("Render", appName+" render "+path)
	printNextStep("Explore", appName+" explore "+path)
	return nil
}
