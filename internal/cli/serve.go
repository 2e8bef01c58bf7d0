package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sadm/pkg/pipeline"
	"github.com/matzehuels/sadm/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	frameFlags
	addr      string
	transport bool
	noCache   bool
}

func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve <adm.xml|file.wav>",
		Short: "Serve S-ADM frames of a document over HTTP",
		Long: `Serve S-ADM frames of a document over HTTP.

Routes:
  GET /frames/{index}              frame of the fixed grid, from 1
  GET /frames?start=&duration=     frame for any window
  GET /transport?start=&duration=  transportTrackFormat (BW64 input)
  GET /document                    the whole document
  GET /healthz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				opts.addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), args[0], c.options(cmd, &opts.frameFlags), &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&opts.transport, "transport", false, "add transportTrackFormat from the BW64 chna chunk to frames")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the frame cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input string, popts pipeline.Options, opts *serveOpts) error {
	src, err := pipeline.Load(input)
	if err != nil {
		return err
	}
	popts.Transport = opts.transport

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	srv, err := server.New(runner, src, popts)
	if err != nil {
		return err
	}
	printInfo("Serving %s on %s", input, opts.addr)
	return srv.ListenAndServe(ctx, opts.addr)
}
