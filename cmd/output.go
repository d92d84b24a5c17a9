package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Padding(0, 1)
)

// outputJSON reports whether --json was passed to the command.
func outputJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "print the raw result as JSON")
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(b))
	return nil
}

// printTable renders rows under headers, or prints v as JSON when the command
// was asked to.
func printTable(cmd *cobra.Command, v interface{}, headers []string, rows [][]string) error {
	if outputJSON(cmd) {
		return printJSON(v)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stdout, "nothing to show")
		return nil
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(os.Stdout, t)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
