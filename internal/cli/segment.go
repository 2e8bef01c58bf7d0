package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/sadm/pkg/errors"
	"github.com/matzehuels/sadm/pkg/pipeline"
	"github.com/matzehuels/sadm/pkg/store"
)

// segmentOpts holds the command-line flags for the segment command.
type segmentOpts struct {
	frameFlags
	prefix    string // output file prefix; stdout if empty
	archive   bool   // also store frames in the archive
	transport bool   // attach transportTrackFormat from chna
	refresh   bool   // ignore cached frames
	noCache   bool
}

// framePath names frame id of a run written with prefix.
func framePath(prefix string, id uint64) string {
	return fmt.Sprintf("%s_%05d.xml", prefix, id)
}

func (c *CLI) segmentCommand() *cobra.Command {
	var opts segmentOpts

	cmd := &cobra.Command{
		Use:   "segment <adm.xml|file.wav>",
		Short: "Cut an ADM document into S-ADM frames",
		Long: `Cut an ADM document into S-ADM frames of a fixed duration.

Without -o the frames are written to stdout one after another. With -o
PREFIX each frame goes to PREFIX_00001.xml, PREFIX_00002.xml, and so on.
BW64 input is read from its axml chunk; --transport adds a
transportTrackFormat built from its chna chunk to every frame.

Examples:
  sadm segment scene.xml -s 500ms -o frames/scene
  sadm segment scene.wav --transport --archive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.prefix != "" {
				if err := errs.ValidatePrefix(opts.prefix); err != nil {
					return err
				}
			}
			return c.runSegment(cmd.Context(), args[0], c.options(cmd, &opts.frameFlags), &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.prefix, "output", "o", "", "output file prefix (stdout if empty)")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "store frames in the frame archive")
	cmd.Flags().BoolVar(&opts.transport, "transport", false, "add transportTrackFormat from the BW64 chna chunk")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "rebuild frames even when cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the frame cache")

	return cmd
}

func (c *CLI) runSegment(ctx context.Context, input string, popts pipeline.Options, opts *segmentOpts) error {
	src, err := pipeline.Load(input)
	if err != nil {
		return err
	}
	if opts.transport && src.Chna == nil {
		return errs.New(errs.ErrCodeInvalidInput, "--transport needs BW64 input with a chna chunk: %s", input)
	}
	popts.Transport = opts.transport
	popts.Refresh = opts.refresh
	c.Logger.Infof("Segmenting %s into %s frames", input, popts.FrameSize)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var (
		archive store.Store
		runID   string
	)
	if opts.archive {
		if archive, err = c.newStore(ctx); err != nil {
			return err
		}
		defer archive.Close()
		runID = store.NewRunID()
	}
	if opts.prefix != "" {
		if err := os.MkdirAll(filepath.Dir(opts.prefix), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	spin := newSpinner(ctx, "Segmenting")
	if opts.prefix != "" {
		spin.Start()
	}
	emit := func(ctx context.Context, f pipeline.Frame) error {
		spin.SetMessage("Frame %d at %s", f.ID, f.Start)
		if opts.prefix != "" {
			if err := os.WriteFile(framePath(opts.prefix, f.ID), f.XML, 0o644); err != nil {
				return err
			}
		} else if _, err := os.Stdout.Write(f.XML); err != nil {
			return err
		}
		if archive != nil {
			return archive.Put(ctx, store.Record{
				RunID:    runID,
				Index:    f.ID,
				Start:    f.Start,
				Duration: f.Duration,
				XML:      f.XML,
			})
		}
		return nil
	}

	prog := newProgress(c.Logger)
	res, err := runner.Segment(ctx, src, popts, emit)
	spin.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Wrote %d frames", res.Frames))

	if opts.prefix != "" {
		printSuccess("Segmented %s", input)
		printFile(framePath(opts.prefix, 1))
		if res.Frames > 1 {
			printFile(framePath(opts.prefix, uint64(res.Frames)))
		}
		printFrameStats(res.Frames, res.Items, res.CacheHits)
	}
	if runID == "" {
		return nil
	}
	if opts.prefix == "" {
		c.Logger.Info("archived frames", "run", runID)
		return nil
	}
	printKeyValue("Run", runID)
	printNextStep("Recombine", "sadm combine --from-archive "+runID)
	return nil
}
