package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/sadm/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The config file is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   buildinfo.Name,
		Short: "sadm cuts ADM metadata into serial S-ADM frames and joins them again",
		Long: `sadm converts between file-based ADM (ITU-R BS.2076) and serial ADM
(ITU-R BS.2125). It traces every programme down to its channel formats,
cuts the metadata into fixed-duration frames, serves frames over HTTP and
recombines frame sequences into a single document.`,
		Version:      buildinfo.Resolve(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/sadm/config.toml)")

	root.AddCommand(c.segmentCommand())
	root.AddCommand(c.combineCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
