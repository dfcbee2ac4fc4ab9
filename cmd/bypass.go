package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	bypassReason      string
	bypassRequestedBy string
	bypassScore       float64
)

var bypassCmd = &cobra.Command{
	Use:   "bypass",
	Short: "Manage the emergency bypass ledger",
	Long: `Manage emergency bypasses for blocked reviews.

Every bypass is appended to an audit ledger and stays active for 24
hours from the moment it is recorded. Records are never updated or
deleted; a fresh bypass for the same task is a new ledger entry.`,
}

var bypassRecordCmd = &cobra.Command{
	Use:   "record <task-id>",
	Short: "Record an emergency bypass for a blocked task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bypassRecordRun(cmd, args[0])
	},
}

var bypassStatusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Check whether a task has an active bypass",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bypassStatusRun(cmd, args[0])
	},
}

var bypassListCmd = &cobra.Command{
	Use:   "list [task-id]",
	Short: "List bypass records, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := ""
		if len(args) == 1 {
			taskID = args[0]
		}
		return bypassListRun(cmd, taskID)
	},
}

func init() {
	bypassRecordCmd.Flags().StringVarP(&bypassReason, "reason", "r", "", "Why the block is being overridden (required)")
	bypassRecordCmd.Flags().StringVar(&bypassRequestedBy, "requested-by", "", "Who requested the bypass")
	bypassRecordCmd.Flags().Float64Var(&bypassScore, "score", 0, "Consensus score at the time of the bypass")
	_ = bypassRecordCmd.MarkFlagRequired("reason")

	bypassCmd.AddCommand(bypassRecordCmd)
	bypassCmd.AddCommand(bypassStatusCmd)
	bypassCmd.AddCommand(bypassListCmd)
	rootCmd.AddCommand(bypassCmd)
}

func bypassRecordRun(cmd *cobra.Command, taskID string) error {
	led, err := getLedger()
	if err != nil {
		return err
	}

	record, err := led.RecordBypass(cmd.Context(), taskID, bypassReason, bypassRequestedBy, bypassScore)
	if err != nil {
		return err
	}

	ui.Success("bypass %s recorded for task %s", record.ID, record.TaskID)
	ui.Info("expires %s", record.ExpiresAt.Local().Format(time.RFC822))
	return nil
}

func bypassStatusRun(cmd *cobra.Command, taskID string) error {
	led, err := getLedger()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	active, err := led.IsBypassActive(cmd.Context(), taskID, now)
	if err != nil {
		return err
	}

	if active {
		ui.Success("task %s has an active bypass", taskID)
	} else {
		ui.Info("task %s has no active bypass", taskID)
	}

	records, err := led.ListBypasses(cmd.Context(), taskID)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		fmt.Fprintln(ui.Out)
		return ui.RenderBypasses(records, now)
	}
	return nil
}

func bypassListRun(cmd *cobra.Command, taskID string) error {
	led, err := getLedger()
	if err != nil {
		return err
	}

	records, err := led.ListBypasses(cmd.Context(), taskID)
	if err != nil {
		return err
	}
	return ui.RenderBypasses(records, time.Now().UTC())
}
