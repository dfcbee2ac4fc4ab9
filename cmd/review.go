package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/quorum/internal/models"
)

var (
	reviewFiles       []string
	reviewDescription string
	reviewJSON        bool
	reviewResponses   string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run and finalize consensus reviews",
}

var reviewRunCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Dispatch a change to the full panel and print the consensus result",
	Long: `Run the complete review flow: prepare one task per panel reviewer,
dispatch the relevant ones to the model concurrently, aggregate the
responses, and print the consensus result.

Exit code reflects the decision: 0 approve, 1 needs_human, 2 block.
A blocked task with an active emergency bypass exits 0.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRunRun(cmd.Context(), args[0])
	},
}

var reviewPrepareCmd = &cobra.Command{
	Use:   "prepare <task-id>",
	Short: "Emit review tasks as JSON without dispatching them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewPrepareRun(args[0])
	},
}

var reviewFinalizeCmd = &cobra.Command{
	Use:   "finalize <task-id>",
	Short: "Aggregate externally collected reviewer responses",
	Long: `Aggregate reviewer responses collected outside quorum into a
consensus result. Responses are read as a JSON array from --responses
or stdin; missing or malformed entries degrade gracefully instead of
failing the review.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewFinalizeRun(cmd.Context(), args[0])
	},
}

func init() {
	reviewRunCmd.Flags().StringSliceVarP(&reviewFiles, "file", "f", nil, "Changed file path (repeatable)")
	reviewRunCmd.Flags().StringVarP(&reviewDescription, "description", "d", "", "Summary of the change")
	reviewRunCmd.Flags().BoolVar(&reviewJSON, "json", false, "Print the full result as JSON")

	reviewPrepareCmd.Flags().StringSliceVarP(&reviewFiles, "file", "f", nil, "Changed file path (repeatable)")
	reviewPrepareCmd.Flags().StringVarP(&reviewDescription, "description", "d", "", "Summary of the change")

	reviewFinalizeCmd.Flags().StringVar(&reviewResponses, "responses", "", "JSON array of reviewer responses (default: read stdin)")
	reviewFinalizeCmd.Flags().BoolVar(&reviewJSON, "json", false, "Print the full result as JSON")

	reviewCmd.AddCommand(reviewRunCmd)
	reviewCmd.AddCommand(reviewPrepareCmd)
	reviewCmd.AddCommand(reviewFinalizeCmd)
	rootCmd.AddCommand(reviewCmd)
}

func reviewRequest(taskID string) (models.ReviewRequest, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return models.ReviewRequest{}, fmt.Errorf("task id must not be blank")
	}
	return models.ReviewRequest{
		TaskID:            taskID,
		Files:             reviewFiles,
		ChangeDescription: reviewDescription,
	}, nil
}

func reviewRunRun(ctx context.Context, taskID string) error {
	req, err := reviewRequest(taskID)
	if err != nil {
		return err
	}
	orch, err := getOrchestrator()
	if err != nil {
		return err
	}
	runner, err := getRunner()
	if err != nil {
		return err
	}

	tasks := orch.PrepareReview(req)

	relevant := 0
	for _, task := range tasks {
		if task.Relevant {
			relevant++
		}
	}
	ui.Info("dispatching %d/%d reviewers for task %s", relevant, len(tasks), taskID)

	responses := runner.Run(ctx, tasks)
	result := orch.FinalizeReview(req, responses)

	return emitResult(ctx, &result)
}

func reviewPrepareRun(taskID string) error {
	req, err := reviewRequest(taskID)
	if err != nil {
		return err
	}
	orch, err := getOrchestrator()
	if err != nil {
		return err
	}

	tasks := orch.PrepareReview(req)
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	fmt.Fprintln(ui.Out, string(data))
	return nil
}

func reviewFinalizeRun(ctx context.Context, taskID string) error {
	req, err := reviewRequest(taskID)
	if err != nil {
		return err
	}
	orch, err := getOrchestrator()
	if err != nil {
		return err
	}

	raw := []byte(reviewResponses)
	if reviewResponses == "" {
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read responses from stdin: %w", err)
		}
	}

	var responses []models.ReviewerResponse
	if err := json.Unmarshal(raw, &responses); err != nil {
		return fmt.Errorf("parse responses: %w", err)
	}

	result := orch.FinalizeReview(req, responses)
	return emitResult(ctx, &result)
}

// emitResult prints the result and sets the process exit code from the
// decision, honoring an active bypass for blocked tasks.
func emitResult(ctx context.Context, result *models.ReviewResult) error {
	if reviewJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		fmt.Fprintln(ui.Out, string(data))
	} else if err := ui.RenderResult(result); err != nil {
		return err
	}

	switch result.Decision {
	case models.DecisionBlock:
		led, err := getLedger()
		if err != nil {
			return err
		}
		active, err := led.IsBypassActive(ctx, result.TaskID, time.Now().UTC())
		if err != nil {
			return err
		}
		if active {
			ui.Warning("decision is block, but an emergency bypass is active for task %s", result.TaskID)
			return nil
		}
		os.Exit(2)
	case models.DecisionNeedsHuman:
		os.Exit(1)
	}
	return nil
}
