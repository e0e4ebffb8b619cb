package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"m209/internal/results"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("10"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// maxPreview is the number of decrypted letters shown per result.
const maxPreview = 60

func preview(s string) string {
	if len(s) > maxPreview {
		return s[:maxPreview] + "..."
	}
	return s
}

// printResults writes the results best first, as a styled table on a
// terminal and tab-separated columns otherwise.
func printResults(w io.Writer, rs []results.Result) error {
	headers := []string{"#", "SCORE", "WORKER", "CYCLE", "DECRYPTION"}
	rows := make([][]string, len(rs))
	for i, r := range rs {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			strconv.Itoa(r.Worker),
			strconv.Itoa(r.Cycle),
			preview(r.Decryption),
		}
	}

	if isTerminal(w) {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(borderStyle).
			Headers(headers...).
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case row == 0:
					return bestStyle
				default:
					return cellStyle
				}
			})
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range append([][]string{headers}, rows...) {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
