package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sadm/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path
	formats  []string // dot, svg, xml
	detailed bool     // timing and block counts in node labels
	title    string
}

func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts       renderOpts
		formatsStr string
	)

	cmd := &cobra.Command{
		Use:   "render <adm.xml|frame.xml|file.wav>",
		Short: "Draw the entity graph of a document or frame",
		Long: `Draw the entities of an ADM document or S-ADM frame and their references
as a graph. DOT output needs nothing else; SVG is laid out with Graphviz.

Examples:
  sadm render scene.xml -f svg
  sadm render frames/scene_00003.xml -f dot,svg --detailed -o frame3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, xml (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show timing and block counts")
	cmd.Flags().StringVar(&opts.title, "title", "", "graph title (default: input file name)")

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input file
// paths, stripping a known format extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// renderPath is where format goes. A single format honours -o verbatim.
// XML output derived from an XML input gets a suffix so the input is not
// overwritten.
func renderPath(opts *renderOpts, input, format string) string {
	if len(opts.formats) == 1 && opts.output != "" {
		return opts.output
	}
	base := basePath(opts.output, input)
	if format == pipeline.FormatXML && opts.output == "" {
		base += "_rendered"
	}
	return base + "." + format
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	c.Logger.Infof("Rendering %s", input)
	src, err := pipeline.Load(input)
	if err != nil {
		return err
	}
	c.Logger.Debugf("Loaded %d entities", src.Doc.Len())

	title := opts.title
	if title == "" {
		title = filepath.Base(input)
	}

	spin := newSpinner(ctx, "Rendering")
	spin.Start()
	artifacts, err := pipeline.Render(ctx, src.Doc, pipeline.RenderOptions{
		Formats:  opts.formats,
		Detailed: opts.detailed,
		Title:    title,
	})
	spin.Stop()
	if err != nil {
		return err
	}

	for _, format := range opts.formats {
		path := renderPath(opts, input, format)
		if err := writeOutput(path, artifacts[format]); err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		c.Logger.Infof("Generated %s", path)
	}
	return nil
}
