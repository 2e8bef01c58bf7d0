package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sadm/pkg/adm"
	"github.com/matzehuels/sadm/pkg/pipeline"
	"github.com/matzehuels/sadm/pkg/segment"
)

func (c *CLI) traceCommand() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "trace <adm.xml|file.wav>",
		Short: "List the routes from programmes to channel formats",
		Long: `List every route from an audioProgramme down to an audioChannelFormat,
grouped into segmentation items: one per channel and validity interval.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := pipeline.Load(args[0])
			if err != nil {
				return err
			}
			seg, err := segment.New(src.Doc)
			if err != nil {
				return err
			}
			items := seg.Items()
			routes := 0
			for _, it := range items {
				routes += len(it.Routes)
			}
			c.Logger.Debugf("Traced %d routes into %d items", routes, len(items))
			fmt.Println(traceTable(items, full))
			printDetail("%d routes · %d items", routes, len(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "show every entity on each route")
	return cmd
}

// traceTable renders one row per route. Rows of the same item share its
// number.
func traceTable(items []segment.Item, full bool) string {
	headers := []string{"#", "Programme", "Objects", "Channel", "Validity"}
	if full {
		headers = append(headers, "Route")
	}

	var rows [][]string
	for i, it := range items {
		for _, r := range it.Routes {
			row := []string{
				fmt.Sprint(i + 1),
				string(r.Programme()),
				joinIDs(r.AllOf(adm.KindObject)),
				string(it.Channel),
				it.Validity.String(),
			}
			if full {
				row = append(row, r.String())
			}
			rows = append(rows, row)
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 4:
				return lipgloss.NewStyle().Foreground(colorCyan)
			default:
				return lipgloss.NewStyle()
			}
		}).
		Render()
}

func joinIDs(ids []adm.ID) string {
	if len(ids) == 0 {
		return "—"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
