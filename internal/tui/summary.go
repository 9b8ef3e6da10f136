package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"webpify/internal/convert"
)

type SummaryRow struct {
	Label string
	Value string
}

// RunRows builds the end-of-run summary table from the aggregate report.
func RunRows(r convert.Report) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files converted", Value: fmt.Sprintf("%d", r.Converted)},
		{Label: "Files failed", Value: fmt.Sprintf("%d", r.Failed)},
		{Label: "Processing time", Value: r.Elapsed.Round(timeGrain(r.Elapsed)).String()},
	}
	if r.Converted > 0 && r.Elapsed > 0 {
		rows = append(rows, SummaryRow{
			Label: "Processing speed",
			Value: fmt.Sprintf("%.1f files/minute", r.FilesPerMinute()),
		})
	}

	rows = append(rows,
		SummaryRow{Label: "Original total size", Value: FormatBytes(r.OriginalBytes)},
		SummaryRow{Label: "WebP total size", Value: FormatBytes(r.MainBytes)},
		SummaryRow{Label: "Thumbnails total size", Value: FormatBytes(r.ThumbBytes)},
		SummaryRow{Label: "Output total size", Value: FormatBytes(r.OutputBytes())},
	)

	if saved := r.SpaceSaved(); saved >= 0 {
		rows = append(rows,
			SummaryRow{Label: "Space saved", Value: FormatBytes(saved)},
			SummaryRow{Label: "Space savings", Value: fmt.Sprintf("%.1f%%", r.SavingsPercent())},
		)
	} else {
		rows = append(rows,
			SummaryRow{Label: "Space used", Value: FormatBytes(-saved)},
			SummaryRow{Label: "Space increase", Value: fmt.Sprintf("%.1f%%", -r.SavingsPercent())},
		)
	}

	rows = append(rows, SummaryRow{
		Label: "Overall compression ratio",
		Value: fmt.Sprintf("%.1f%%", r.CompressionRatio()),
	})
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func timeGrain(elapsed time.Duration) time.Duration {
	if elapsed >= time.Minute {
		return time.Second
	}
	return time.Millisecond
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)
