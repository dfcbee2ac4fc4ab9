// Package review coordinates the two-phase review flow: PrepareReview
// builds per-reviewer tasks, FinalizeReview aggregates whatever
// responses came back into a ReviewResult.
package review

import (
	"strings"

	"github.com/joescharf/quorum/internal/dedupe"
	"github.com/joescharf/quorum/internal/extract"
	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
	"github.com/joescharf/quorum/internal/score"
)

// Orchestrator drives extraction, deduplication, and scoring for a
// fixed reviewer panel. It holds no per-review state and is safe for
// concurrent use.
type Orchestrator struct {
	panel  panel.Panel
	scorer *score.Scorer
}

// NewOrchestrator creates an orchestrator for the given panel. Panics
// on an empty panel (misconfigured deployment).
func NewOrchestrator(p panel.Panel) *Orchestrator {
	if len(p) == 0 {
		panic("review: empty reviewer panel")
	}
	return &Orchestrator{panel: p, scorer: score.NewScorer(p)}
}

// Panel returns the configured reviewer panel.
func (o *Orchestrator) Panel() panel.Panel {
	return o.panel
}

// PrepareReview emits one ReviewTask per panel profile, in panel
// order. Irrelevant reviewers still get a task with Relevant=false:
// the caller may skip dispatching them, but the panel size used in
// scoring never shrinks, so a silent abstention cannot change the
// math by changing n.
func (o *Orchestrator) PrepareReview(req models.ReviewRequest) []models.ReviewTask {
	if strings.TrimSpace(req.TaskID) == "" {
		panic("review: empty task id")
	}

	tasks := make([]models.ReviewTask, 0, len(o.panel))
	for i := range o.panel {
		prof := &o.panel[i]
		tasks = append(tasks, models.ReviewTask{
			ReviewerID:        prof.ID,
			Files:             req.Files,
			ChangeDescription: req.ChangeDescription,
			Relevant:          prof.Relevant(req.Files),
		})
	}
	return tasks
}

// FinalizeReview aggregates collected responses into a ReviewResult.
// It performs no I/O and never fails: absent responses contribute
// zero findings, malformed ones degrade to a per-reviewer parse
// error, and an empty response list yields a score of 0 at tier
// informational. Responses from reviewers not on the panel are
// ignored, and only the first response per reviewer counts.
func (o *Orchestrator) FinalizeReview(req models.ReviewRequest, responses []models.ReviewerResponse) models.ReviewResult {
	var (
		outcomes  []models.ReviewerOutcome
		findings  []models.Finding
		responded int
		seen      = make(map[string]bool, len(responses))
	)

	for _, resp := range responses {
		if o.panel.ByID(resp.ReviewerID) == nil || seen[resp.ReviewerID] {
			continue
		}
		seen[resp.ReviewerID] = true

		ex := extract.Extract(resp)
		if ex.Received {
			responded++
		}
		outcomes = append(outcomes, models.ReviewerOutcome{
			ReviewerID:   resp.ReviewerID,
			Received:     ex.Received,
			FindingCount: len(ex.Findings),
			ParseError:   ex.ParseErr,
		})
		findings = append(findings, ex.Findings...)
	}

	deduped := dedupe.Deduplicate(findings)
	cs := o.scorer.Score(deduped, responded)

	return models.ReviewResult{
		TaskID:               req.TaskID,
		PerReviewerOutcomes:  outcomes,
		DeduplicatedFindings: deduped,
		ConsensusScore:       cs,
		Decision:             score.DecisionFor(cs.Tier),
	}
}
