package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/pipeline"
	"github.com/matzehuels/flowview/pkg/sankey"
)

// stdinName is the input argument that reads from standard input.
const stdinName = "-"

// diagramSuffix marks diagram files written by the layout command.
const diagramSuffix = ".diagram.json"

// isDiagramFile reports whether path holds a built diagram rather than edges.
func isDiagramFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), diagramSuffix)
}

// setInput points opts at the input argument. Standard input is read
// eagerly and needs an explicit format.
func setInput(opts *pipeline.Options, input, format string, stdin io.Reader) error {
	if input != stdinName {
		opts.Path = input
		opts.InputFormat = format
		if format != "" {
			data, err := os.ReadFile(input)
			if err != nil {
				return fverrors.Wrap(fverrors.ErrCodeFileNotFound, err, "read %s", input)
			}
			opts.Path, opts.Input = "", data
		}
		return nil
	}
	if format == "" {
		return fverrors.New(fverrors.ErrCodeInvalidFormat, "--input-format is required when reading from stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	opts.Input = data
	opts.InputFormat = format
	return nil
}

// readDiagram loads a diagram file written by the layout command.
func readDiagram(path string) (sankey.Diagram, error) {
	if err := fverrors.ValidatePath(path); err != nil {
		return sankey.Diagram{}, err
	}
	d, err := sankey.ReadDiagramFile(path)
	if err != nil {
		return sankey.Diagram{}, fverrors.Wrap(fverrors.ErrCodeInvalidInput, err, "load diagram %s", path)
	}
	return d, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .json, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == stdinName {
			return appName
		}
		input = strings.TrimSuffix(input, diagramSuffix)
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// openOutput opens path for writing; "-" is standard output.
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == stdinName {
		return nopCloser{stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
