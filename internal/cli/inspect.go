package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/sadm/pkg/adm"
	errs "github.com/matzehuels/sadm/pkg/errors"
	"github.com/matzehuels/sadm/pkg/pipeline"
	"github.com/matzehuels/sadm/pkg/segment"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	start    time.Duration
	duration time.Duration
	tui      bool
}

func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <adm.xml|file.wav>",
		Short: "Show the blocks each channel contributes to a window",
		Long: `Show, for one window, which segmentation items contribute and which of
their audioBlockFormats a frame for that window would carry.

With --tui the window can be moved through the document interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("duration") {
				opts.duration = c.Config.FrameSize
			}
			if err := errs.ValidateWindow(opts.start, opts.duration); err != nil {
				return err
			}
			src, err := pipeline.Load(args[0])
			if err != nil {
				return err
			}
			seg, err := segment.New(src.Doc)
			if err != nil {
				return err
			}
			if opts.tui {
				return runInspectTUI(seg, opts.start, opts.duration)
			}
			fmt.Println(StyleTitle.Render(segment.Window(opts.start, opts.duration).String()))
			fmt.Println(selectionTable(seg.Select(opts.start, opts.duration)))
			return nil
		},
	}

	cmd.Flags().DurationVar(&opts.start, "start", 0, "window start")
	cmd.Flags().DurationVar(&opts.duration, "duration", time.Second, "window duration")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "browse windows interactively")
	return cmd
}

// selectionTable renders one row per contributing item.
func selectionTable(sels []segment.Selection) string {
	if len(sels) == 0 {
		return StyleDim.Render("no items contribute to this window")
	}
	rows := make([][]string, len(sels))
	for i, s := range sels {
		rows[i] = []string{
			string(s.Item.Channel),
			s.Item.Validity.String(),
			fmt.Sprint(len(s.Blocks)),
			blockSummary(s.Blocks),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Channel", "Validity", "Blocks", "Selected").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// blockSummary lists block IDs with their rtime, e.g.
// "AB_00031001_00000001@0s".
func blockSummary(blocks []adm.BlockFormat) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("%s@%s", b.ID, b.Rtime)
	}
	return strings.Join(parts, "\n")
}

// =============================================================================
// inspectModel - Interactive window browser
// =============================================================================

// inspectModel is the bubbletea model for stepping a window through a
// document.
type inspectModel struct {
	seg      *segment.Segmenter
	start    time.Duration
	duration time.Duration
	length   time.Duration // zero when unbounded
}

func newInspectModel(seg *segment.Segmenter, start, duration time.Duration) inspectModel {
	length, _ := seg.Length()
	return inspectModel{seg: seg, start: start, duration: duration, length: length}
}

func (m inspectModel) Init() tea.Cmd { return nil }

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "right", "l":
		if m.length == 0 || m.start+m.duration < m.length {
			m.start += m.duration
		}
	case "left", "h":
		m.start = max(0, m.start-m.duration)
	case "+":
		m.duration *= 2
	case "-":
		if m.duration > time.Millisecond {
			m.duration /= 2
		}
	case "home", "g":
		m.start = 0
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder
	frame := m.start/m.duration + 1
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Frame %d  %s", frame, segment.Window(m.start, m.duration))))
	if m.length > 0 {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  of %s", m.length)))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ move  +/- resize  g start  q quit"))
	b.WriteString("\n\n")
	b.WriteString(selectionTable(m.seg.Select(m.start, m.duration)))
	b.WriteString("\n")
	return b.String()
}

func runInspectTUI(seg *segment.Segmenter, start, duration time.Duration) error {
	_, err := tea.NewProgram(newInspectModel(seg, start, duration)).Run()
	return err
}
