package cli

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/sadm/pkg/errors"
	pkgio "github.com/matzehuels/sadm/pkg/io"
	"github.com/matzehuels/sadm/pkg/pipeline"
)

// combineOpts holds the command-line flags for the combine command.
type combineOpts struct {
	output      string
	fromArchive string // run ID
	xml         pkgio.Options
}

func (c *CLI) combineCommand() *cobra.Command {
	var opts combineOpts

	cmd := &cobra.Command{
		Use:   "combine <frame.xml>... | --from-archive RUN",
		Short: "Merge S-ADM frames into one ADM document",
		Long: `Merge a sequence of S-ADM frames into one ADM document.

Frames are merged in the order given. Quoted glob patterns, including **,
are expanded in sorted order. Every frame must carry the same
transportTrackFormat, or none.

Examples:
  sadm combine frames/scene_*.xml -o scene.xml
  sadm combine 'runs/**/scene_*.xml' -o scene.xml
  sadm combine --from-archive 0b8f5c1e-3a55-4b8e-9a3c-2f9d6f1c7e21`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.fromArchive != "" && len(args) > 0:
				return errs.New(errs.ErrCodeInvalidInput, "give frame files or --from-archive, not both")
			case opts.fromArchive == "" && len(args) == 0:
				return errs.New(errs.ErrCodeInvalidInput, "no frames to combine")
			}
			return c.runCombine(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.fromArchive, "from-archive", "", "combine the frames of an archived run")
	cmd.Flags().BoolVar(&opts.xml.ITUStructure, "itu", false, "wrap output in ituADM instead of ebuCoreMain")
	cmd.Flags().BoolVar(&opts.xml.WriteDefaultValues, "write-defaults", false, "write attributes that carry default values")

	return cmd
}

func (c *CLI) runCombine(ctx context.Context, paths []string, opts *combineOpts) error {
	inputs, closeInputs, err := c.combineInputs(ctx, paths, opts.fromArchive)
	if err != nil {
		return err
	}
	defer closeInputs()

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	prog := newProgress(c.Logger)
	res, err := runner.Combine(ctx, inputs)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Combined %d frames into %d entities", res.Frames, res.Document.Len()))
	if t := res.Transport; t != nil {
		c.Logger.Debug("transport", "id", t.FormattedID(), "tracks", t.NumTracks(), "uids", t.NumIDs())
	}

	data, err := pkgio.MarshalDocument(res.Document, opts.xml)
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Combined %d frames", res.Frames)
		printFile(opts.output)
	}
	return nil
}

// combineInputs returns the frames to merge and a func releasing the
// archive connection, if any.
func (c *CLI) combineInputs(ctx context.Context, paths []string, runID string) (iter.Seq2[pipeline.Input, error], func(), error) {
	if runID == "" {
		files, err := expandFrames(paths)
		if err != nil {
			return nil, nil, err
		}
		return pipeline.Files(files), func() {}, nil
	}
	if err := errs.ValidateRunID(runID); err != nil {
		return nil, nil, err
	}
	archive, err := c.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	recs, err := archive.List(ctx, runID)
	if err != nil {
		archive.Close()
		return nil, nil, err
	}
	c.Logger.Infof("Loaded %d archived frames of run %s", len(recs), runID)
	return pipeline.Records(recs), func() { archive.Close() }, nil
}

// expandFrames replaces every glob pattern in args with its matches, ordered
// by frame number. Plain paths are kept as given.
func expandFrames(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			out = append(out, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "bad pattern %q", arg)
		}
		if len(matches) == 0 {
			return nil, errs.New(errs.ErrCodeFileNotFound, "no frames match %q", arg)
		}
		slices.SortFunc(matches, compareFrames)
		out = append(out, matches...)
	}
	return out, nil
}

// compareFrames orders frame files by the number after the last underscore
// of their base name, so "s_100000.xml" follows "s_99999.xml". Files without
// a number sort after numbered ones, by path.
func compareFrames(a, b string) int {
	ia, oka := frameNumber(a)
	ib, okb := frameNumber(b)
	switch {
	case oka && okb:
		if c := cmp.Compare(ia, ib); c != 0 {
			return c
		}
	case oka:
		return -1
	case okb:
		return 1
	}
	return strings.Compare(a, b)
}

func frameNumber(path string) (uint64, bool) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.LastIndexByte(name, '_')
	if i < 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(name[i+1:], 10, 64)
	return n, err == nil
}
