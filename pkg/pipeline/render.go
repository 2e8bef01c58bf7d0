package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/sadm/pkg/adm"
	errs "github.com/matzehuels/sadm/pkg/errors"
	pkgio "github.com/matzehuels/sadm/pkg/io"
	"github.com/matzehuels/sadm/pkg/render/nodelink"
)

// Format constants for rendered outputs.
const (
	FormatXML = "xml"
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatXML: true,
	FormatDOT: true,
	FormatSVG: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be one of: xml, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// RenderOptions configures [Render].
type RenderOptions struct {
	Formats  []string
	Detailed bool
	Title    string
	XML      pkgio.Options
}

// Render produces doc in every requested format, keyed by format.
func Render(ctx context.Context, doc *adm.Document, opts RenderOptions) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatXML:
			data, err = pkgio.MarshalDocument(doc, opts.XML)
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = nodelink.ToDOT(doc, nodelink.Options{Detailed: opts.Detailed, Title: opts.Title})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(ctx, dot)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
