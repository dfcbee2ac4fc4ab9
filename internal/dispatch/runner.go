package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
)

const defaultTimeout = 120 * time.Second

// completeFunc sends one prompt pair and returns the model's raw text.
type completeFunc func(ctx context.Context, system, user string, temperature float64) (string, error)

// Runner fans a review out to every relevant reviewer on the panel and
// collects the raw responses. A reviewer that times out or errors is
// reported with Received=false rather than failing the run.
type Runner struct {
	panel       panel.Panel
	api         *anthropic.Client
	model       anthropic.Model
	timeout     time.Duration
	maxFindings int

	complete completeFunc // swapped out in tests
}

// NewRunner creates a dispatch runner with the given API key and model.
func NewRunner(p panel.Panel, apiKey, model string, timeout time.Duration, maxFindings int) *Runner {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	r := &Runner{
		panel:       p,
		api:         &client,
		model:       anthropic.Model(model),
		timeout:     timeout,
		maxFindings: maxFindings,
	}
	r.complete = r.completeAnthropic
	return r
}

// Run executes every relevant task concurrently and returns one
// response per task, in task order. Irrelevant tasks come back
// immediately with Received=false and no error.
func (r *Runner) Run(ctx context.Context, tasks []models.ReviewTask) []models.ReviewerResponse {
	responses := make([]models.ReviewerResponse, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		responses[i] = models.ReviewerResponse{ReviewerID: task.ReviewerID}
		if !task.Relevant {
			continue
		}

		wg.Add(1)
		go func(i int, task models.ReviewTask) {
			defer wg.Done()
			responses[i] = r.runOne(ctx, task)
		}(i, task)
	}
	wg.Wait()

	return responses
}

// runOne dispatches a single reviewer with its own deadline.
func (r *Runner) runOne(ctx context.Context, task models.ReviewTask) models.ReviewerResponse {
	resp := models.ReviewerResponse{ReviewerID: task.ReviewerID}

	profile := r.panel.ByID(task.ReviewerID)
	if profile == nil {
		resp.Error = fmt.Sprintf("reviewer %s not on panel", task.ReviewerID)
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	system, user := buildReviewPrompt(task, profile, r.maxFindings)
	text, err := r.complete(ctx, system, user, profile.Temperature)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	resp.RawOutput = text
	resp.Received = true
	return resp
}

// completeAnthropic is the production completeFunc.
func (r *Runner) completeAnthropic(ctx context.Context, system, user string, temperature float64) (string, error) {
	msg, err := r.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       r.model,
		MaxTokens:   4096,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return text, nil
}
