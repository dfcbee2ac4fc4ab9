package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/quorum/internal/mcp"
	"github.com/joescharf/quorum/internal/review"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an agent runtime drive the review flow natively: prepare
tasks, submit collected reviewer responses for aggregation, and manage
emergency bypasses. Configure with:

  {
    "mcpServers": {
      "quorum": { "command": "quorum", "args": ["mcp"] }
    }
  }

Available tools: quorum_prepare_review, quorum_finalize_review,
quorum_record_bypass, quorum_bypass_status, quorum_panel`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := getPanel()
		if err != nil {
			return err
		}
		led, err := getLedger()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(p, review.NewOrchestrator(p), led)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
