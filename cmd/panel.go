package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Show the reviewer panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return panelRun()
	},
}

func init() {
	rootCmd.AddCommand(panelCmd)
}

func panelRun() error {
	p, err := getPanel()
	if err != nil {
		return err
	}

	table := ui.Table([]string{"ID", "Category", "Extensions", "Temp"})
	for _, prof := range p {
		exts := strings.Join(prof.Extensions, ", ")
		if exts == "" {
			exts = "(all files)"
		}
		table.Append([]string{
			prof.ID,
			string(prof.Category),
			exts,
			fmt.Sprintf("%.1f", prof.Temperature),
		})
	}
	return table.Render()
}
