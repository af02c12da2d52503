package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/pipeline"
	"github.com/matzehuels/flowview/pkg/sankey"
)

// renderFlags holds command-line flags shared by render and layout.
type renderFlags struct {
	output      string
	formats     string
	inputFormat string
	noCache     bool
	refresh     bool
	width       float64
}

// renderCommand creates the render command for generating diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags renderFlags
		opts  pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [edges file | diagram.json | -]",
		Short: "Render a flow diagram to SVG, JSON, DOT, PNG or PDF",
		Long: `Render a flow diagram.

The input is an edge list (.json, .yaml, .toml or .csv), a diagram file
written by 'layout' (*.diagram.json), or "-" to read edges from stdin
together with --input-format.

With a single format, -o names the output file ("-" for stdout). With several
formats, -o is a base path and each format gets its own extension.

Results are cached; repeated renders of the same input are instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			base := optionsFromConfig(cfg)
			mergeOptions(&base, opts)
			if f := parseFormats(flags.formats); f != nil {
				base.Formats = f
			}
			if err := pipeline.ValidateFormats(base.Formats); err != nil {
				return err
			}
			if flags.width > 0 {
				base.Canvas.Width = flags.width
			}
			base.Refresh = flags.refresh
			return c.runRender(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], base, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), json, dot, png, pdf (comma-separated)")
	cmd.Flags().StringVar(&flags.inputFormat, "input-format", "", "input format: json, yaml, toml, csv (default: from extension)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().Float64Var(&flags.width, "width", 0, "canvas width (default from config)")

	cmd.Flags().StringVarP(&opts.VizType, "type", "t", pipeline.DefaultVizType, "visualization type: sankey (default), nodelink")
	cmd.Flags().StringVar(&opts.Title, "title", "", "diagram title (overrides the document's)")
	cmd.Flags().BoolVar(&opts.Values, "values", false, "show node totals in labels")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "omit the hover script from SVG output")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show totals and values (dot, nodelink)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor (default from config)")
	cmd.Flags().Float64Var(&opts.MinLinkWidth, "min-link-width", 0, "minimum link thickness")
	cmd.Flags().StringVar(&opts.SourceHeader, "source-header", pipeline.DefaultSourceHeader, "left column header")
	cmd.Flags().StringVar(&opts.TargetHeader, "target-header", pipeline.DefaultTargetHeader, "right column header")

	return cmd
}

// mergeOptions copies the flag-backed fields of flags onto base. Zero values
// keep the configured defaults.
func mergeOptions(base *pipeline.Options, flags pipeline.Options) {
	base.VizType = flags.VizType
	base.Title = flags.Title
	base.Values = base.Values || flags.Values
	base.Static = flags.Static
	base.Detailed = flags.Detailed
	base.SourceHeader = flags.SourceHeader
	base.TargetHeader = flags.TargetHeader
	if flags.Scale > 0 {
		base.Scale = flags.Scale
	}
	if flags.MinLinkWidth > 0 {
		base.MinLinkWidth = flags.MinLinkWidth
	}
}

// runRender renders input to every requested format and writes the files.
func (c *CLI) runRender(ctx context.Context, stdin io.Reader, stdout io.Writer, input string, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinner(ctx, "Rendering "+displayInput(input)+"...")
	spinner.Start()

	var (
		artifacts map[string][]byte
		d         sankey.Diagram
		stats     pipeline.Stats
		hit       bool
	)
	if isDiagramFile(input) {
		d, err = readDiagram(input)
		if err == nil {
			artifacts, hit, err = runner.RenderWithCacheInfo(ctx, d, opts)
			stats = pipeline.Stats{NodeCount: len(d.Nodes), LinkCount: len(d.Links), DroppedEdges: d.Dropped}
		}
	} else if err = setInput(&opts, input, flags.inputFormat, stdin); err == nil {
		var res *pipeline.Result
		if res, err = runner.Execute(ctx, opts); err == nil {
			artifacts, d, stats, hit = res.Artifacts, res.Diagram, res.Stats, res.CacheInfo.RenderHit
		}
	}
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(artifacts, opts.Formats, input, flags.output, stdout)
	if err != nil {
		return err
	}
	if flags.output == stdinName {
		return nil
	}

	printSuccess("Rendered %s", diagramLabel(d, input))
	for _, p := range paths {
		printFile(p)
	}
	printStats(stats, hit)
	return nil
}

// writeArtifacts writes each format to its own file and returns the paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string, stdout io.Writer) ([]string, error) {
	if len(formats) > 1 && output == stdinName {
		return nil, fmt.Errorf("cannot write %d formats to stdout", len(formats))
	}

	var paths []string
	seen := make(map[string]bool, len(formats))
	for _, format := range formats {
		if seen[format] {
			continue
		}
		seen[format] = true

		path := basePath(output, input) + "." + format
		if len(formats) == 1 && output != "" {
			path = output
		}

		out, err := openOutput(path, stdout)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", path, err)
		}
		_, err = out.Write(artifacts[format])
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func displayInput(input string) string {
	if input == stdinName {
		return "stdin"
	}
	return input
}

func diagramLabel(d sankey.Diagram, input string) string {
	if d.Title != "" {
		return d.Title
	}
	return displayInput(input)
}
