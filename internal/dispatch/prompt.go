package dispatch

import (
	"fmt"
	"strings"

	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
)

// buildReviewPrompt constructs the system and user prompts for one
// reviewer's pass over a change.
func buildReviewPrompt(task models.ReviewTask, profile *panel.ReviewerProfile, maxFindings int) (system string, user string) {
	var sys strings.Builder
	sys.WriteString("You are a ")
	sys.WriteString(string(profile.Category))
	sys.WriteString(` specialist reviewing a code change. Return ONLY a JSON array of finding objects with these fields:
- "file": path of the affected file
- "line_start": first affected line (1-based)
- "line_end": last affected line
- "category": one of "security", "correctness", "performance", "maintainability", "reliability"
- "severity": integer 1-10, how bad the problem is if real
- "confidence": integer 1-10, how sure you are the problem is real
- "description": what is wrong and why it matters
- "remediation": how to fix it (can be empty string)

Rules:
- Report only findings in your specialty (`)
	sys.WriteString(string(profile.Category))
	sys.WriteString(`) unless something outside it is clearly severe
- One object per distinct problem; do not repeat the same problem at multiple lines`)
	if maxFindings > 0 {
		fmt.Fprintf(&sys, "\n- Report at most %d findings, most severe first", maxFindings)
	}
	sys.WriteString(`
- If the change looks fine, return an empty array []
- Return valid JSON only, no markdown fencing or explanation`)
	system = sys.String()

	var sb strings.Builder
	if task.ChangeDescription != "" {
		sb.WriteString("Change description:\n")
		sb.WriteString(task.ChangeDescription)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Files under review:\n")
	for _, f := range task.Files {
		sb.WriteString("- ")
		sb.WriteString(f)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}
