package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/flowview/pkg/flow"
	"github.com/matzehuels/flowview/pkg/observability"
)

// Decode resolves the input named by opts into an edge document.
// Documents passed in directly are validated but otherwise returned as is.
func Decode(ctx context.Context, opts Options) (flow.Document, error) {
	if err := opts.ValidateForDecode(); err != nil {
		return flow.Document{}, err
	}

	format := opts.InputFormat
	if opts.Document != nil {
		format = "document"
	} else if opts.Path != "" && format == "" {
		format, _ = flow.FormatFromPath(opts.Path)
	}

	hooks := observability.Pipeline()
	hooks.OnDecodeStart(ctx, format)
	start := time.Now()

	doc, err := decode(opts)

	hooks.OnDecodeComplete(ctx, format, len(doc.Edges), time.Since(start), err)
	if err != nil {
		return flow.Document{}, err
	}
	opts.Logger.Debug("decoded input", "format", format, "edges", len(doc.Edges))
	return doc, nil
}

func decode(opts Options) (flow.Document, error) {
	switch {
	case opts.Document != nil:
		if err := opts.Document.Validate(); err != nil {
			return flow.Document{}, err
		}
		return *opts.Document, nil
	case len(opts.Input) > 0:
		return flow.Decode(bytes.NewReader(opts.Input), opts.InputFormat)
	default:
		return flow.ReadFile(opts.Path)
	}
}
