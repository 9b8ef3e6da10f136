package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"webpify/internal/codec"
	"webpify/internal/tui"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Report what the codec sees in each image without converting",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cd := codec.New()

		for i, path := range args {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintf(os.Stdout, "%s\n", inspectFileStyle.Render(path))

			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stdout, "  %s %s\n", inspectBulletStyle.Render("-"), inspectDimStyle.Render(err.Error()))
				continue
			}

			props, err := cd.Probe(data)
			if err != nil {
				fmt.Fprintf(os.Stdout, "  %s %s\n", inspectBulletStyle.Render("-"), inspectDimStyle.Render(err.Error()))
				continue
			}

			meta := cd.ExtractMetadata(data)

			printInspectLine("Format", props.Format.String())
			printInspectLine("Dimensions", fmt.Sprintf("%dx%d", props.Width, props.Height))
			printInspectLine("Alpha channel", yesNo(props.HasAlpha))
			printInspectLine("Animated", yesNo(props.Animated))
			if props.Animated {
				printInspectLine("Frames", fmt.Sprintf("%d", props.FrameCount))
			}
			printInspectLine("EXIF metadata", yesNo(len(meta.Exif) > 0))
			printInspectLine("ICC profile", yesNo(len(meta.ICC) > 0))
		}

		return nil
	},
}

func printInspectLine(label, value string) {
	fmt.Fprintf(os.Stdout, "  %s %s %s\n",
		inspectBulletStyle.Render("-"),
		inspectLabelStyle.Render(label+":"),
		inspectValueStyle.Render(value),
	)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

var (
	inspectFileStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	inspectLabelStyle  = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectValueStyle  = lipgloss.NewStyle().Foreground(tui.ColorInk)
	inspectDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	inspectBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)
