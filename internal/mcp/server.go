package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/quorum/internal/ledger"
	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
	"github.com/joescharf/quorum/internal/review"
)

// Server exposes the review engine and bypass ledger as MCP tools.
type Server struct {
	panel        panel.Panel
	orchestrator *review.Orchestrator
	ledger       ledger.Ledger
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(p panel.Panel, orch *review.Orchestrator, led ledger.Ledger) *Server {
	return &Server{
		panel:        p,
		orchestrator: orch,
		ledger:       led,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("quorum", "1.0.0", server.WithToolCapabilities(true))

	// Register all tools
	srv.AddTool(s.prepareReviewTool())
	srv.AddTool(s.finalizeReviewTool())
	srv.AddTool(s.recordBypassTool())
	srv.AddTool(s.bypassStatusTool())
	srv.AddTool(s.panelTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// quorum_prepare_review
func (s *Server) prepareReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("quorum_prepare_review",
		mcp.WithDescription("Prepare review tasks for a code change. Returns one task per panel reviewer, each flagged relevant or not, for the caller to dispatch."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Identifier for this review")),
		mcp.WithString("files", mcp.Required(), mcp.Description("Comma-separated list of changed file paths")),
		mcp.WithString("change_description", mcp.Description("Summary of what the change does")),
	)
	return tool, s.handlePrepareReview
}

func (s *Server) handlePrepareReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil || strings.TrimSpace(taskID) == "" {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	filesArg, err := request.RequireString("files")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: files"), nil
	}

	req := models.ReviewRequest{
		TaskID:            taskID,
		Files:             splitFiles(filesArg),
		ChangeDescription: request.GetString("change_description", ""),
	}

	tasks := s.orchestrator.PrepareReview(req)
	data, err := json.Marshal(tasks)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal tasks: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// quorum_finalize_review
func (s *Server) finalizeReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("quorum_finalize_review",
		mcp.WithDescription("Aggregate reviewer responses into a consensus result. Accepts raw reviewer output, including malformed or missing responses, and returns findings, score, tier, and decision."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Identifier for this review")),
		mcp.WithString("responses", mcp.Required(), mcp.Description(`JSON array of reviewer responses: [{"reviewer_id": "...", "raw_output": "...", "received": true}]`)),
	)
	return tool, s.handleFinalizeReview
}

func (s *Server) handleFinalizeReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil || strings.TrimSpace(taskID) == "" {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	responsesArg, err := request.RequireString("responses")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: responses"), nil
	}

	var responses []models.ReviewerResponse
	if err := json.Unmarshal([]byte(responsesArg), &responses); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("responses is not a valid JSON array: %v", err)), nil
	}

	result := s.orchestrator.FinalizeReview(models.ReviewRequest{TaskID: taskID}, responses)
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// quorum_record_bypass
func (s *Server) recordBypassTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("quorum_record_bypass",
		mcp.WithDescription("Record an emergency bypass for a blocked review. The bypass is active for 24 hours and requires a non-empty reason."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Review task being bypassed")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why the block is being overridden")),
		mcp.WithString("requested_by", mcp.Description("Who requested the bypass")),
		mcp.WithNumber("consensus_score", mcp.Description("Consensus score at the time of the bypass")),
	)
	return tool, s.handleRecordBypass
}

func (s *Server) handleRecordBypass(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	reason, err := request.RequireString("reason")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reason"), nil
	}

	record, err := s.ledger.RecordBypass(ctx, taskID, reason,
		request.GetString("requested_by", ""),
		request.GetFloat("consensus_score", 0))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record bypass: %v", err)), nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal record: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// quorum_bypass_status
func (s *Server) bypassStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("quorum_bypass_status",
		mcp.WithDescription("Check whether a task has an active (non-expired) bypass. Returns the active flag and all ledger records for the task."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Review task to check")),
	)
	return tool, s.handleBypassStatus
}

func (s *Server) handleBypassStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}

	now := time.Now().UTC()
	active, err := s.ledger.IsBypassActive(ctx, taskID, now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to check bypass: %v", err)), nil
	}
	records, err := s.ledger.ListBypasses(ctx, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bypasses: %v", err)), nil
	}

	out := struct {
		TaskID  string                 `json:"task_id"`
		Active  bool                   `json:"active"`
		Records []*models.BypassRecord `json:"records"`
	}{
		TaskID:  taskID,
		Active:  active,
		Records: records,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// quorum_panel
func (s *Server) panelTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("quorum_panel",
		mcp.WithDescription("List the reviewer panel: id, category, file extensions, and temperature for each reviewer."),
	)
	return tool, s.handlePanel
}

func (s *Server) handlePanel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type reviewerOut struct {
		ID          string   `json:"id"`
		Category    string   `json:"category"`
		Extensions  []string `json:"extensions,omitempty"`
		Temperature float64  `json:"temperature"`
	}

	out := make([]reviewerOut, len(s.panel))
	for i, p := range s.panel {
		out[i] = reviewerOut{
			ID:          p.ID,
			Category:    string(p.Category),
			Extensions:  p.Extensions,
			Temperature: p.Temperature,
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal panel: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// splitFiles parses a comma-separated file list, dropping empty entries.
func splitFiles(s string) []string {
	parts := strings.Split(s, ",")
	files := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			files = append(files, p)
		}
	}
	return files
}
