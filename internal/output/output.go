package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/joescharf/quorum/internal/models"
)

// UI provides colored output and respects verbose mode.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// Cyan returns a cyan-colored string.
func Cyan(s string) string { return cyan(s) }

// Green returns a green-colored string.
func Green(s string) string { return green(s) }

// Yellow returns a yellow-colored string.
func Yellow(s string) string { return yellow(s) }

// Red returns a red-colored string.
func Red(s string) string { return red(s) }

// TierColor returns the tier name colored by how alarming it is.
func TierColor(tier models.Tier) string {
	s := string(tier)
	switch tier {
	case models.TierInformational:
		return green(s)
	case models.TierModerate:
		return cyan(s)
	case models.TierImportant:
		return yellow(s)
	case models.TierCritical:
		return red(s)
	default:
		return s
	}
}

// DecisionColor returns the decision colored for the terminal.
func DecisionColor(d models.Decision) string {
	s := string(d)
	switch d {
	case models.DecisionApprove:
		return green(s)
	case models.DecisionNeedsHuman:
		return yellow(s)
	case models.DecisionBlock:
		return red(s)
	default:
		return s
	}
}

// SeverityColor returns the severity number colored by magnitude.
func SeverityColor(severity int) string {
	s := fmt.Sprintf("%d", severity)
	switch {
	case severity >= 8:
		return red(s)
	case severity >= 5:
		return yellow(s)
	default:
		return green(s)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// RenderResult prints a finalized review: the score line, one row per
// deduplicated finding, and the per-reviewer outcome summary.
func (u *UI) RenderResult(result *models.ReviewResult) error {
	cs := result.ConsensusScore
	u.Info("task %s: consensus %.2f (%s), decision: %s",
		result.TaskID, cs.Value, TierColor(cs.Tier), DecisionColor(result.Decision))
	u.Info("reviewers responded: %d/%d, contributing findings: %d",
		cs.ReviewersResponded, cs.ReviewersTotal, cs.ContributingFindingCount)

	if len(result.DeduplicatedFindings) > 0 {
		table := u.Table([]string{"Sev", "Conf", "Category", "Location", "Reviewers", "Description"})
		for _, f := range result.DeduplicatedFindings {
			loc := fmt.Sprintf("%s:%d", f.File, f.LineStart)
			if f.LineEnd > f.LineStart {
				loc = fmt.Sprintf("%s-%d", loc, f.LineEnd)
			}
			table.Append([]string{
				SeverityColor(f.MaxSeverity),
				fmt.Sprintf("%d", f.MaxConfidence),
				string(f.Category),
				loc,
				fmt.Sprintf("%d", len(f.ReviewerIDs)),
				truncate(f.Description, 70),
			})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	for _, o := range result.PerReviewerOutcomes {
		switch {
		case !o.Received:
			u.Warning("%s: no response", o.ReviewerID)
		case o.ParseError != "":
			u.Warning("%s: unparseable output (%s)", o.ReviewerID, o.ParseError)
		default:
			u.VerboseLog("%s: %d findings", o.ReviewerID, o.FindingCount)
		}
	}
	return nil
}

// RenderBypasses prints bypass ledger records, newest first.
func (u *UI) RenderBypasses(records []*models.BypassRecord, now time.Time) error {
	if len(records) == 0 {
		u.Info("no bypass records")
		return nil
	}

	table := u.Table([]string{"ID", "Task", "Requested By", "Score", "Recorded", "State"})
	for _, r := range records {
		state := red("expired")
		if r.Active(now) {
			state = green("active")
		}
		table.Append([]string{
			r.ID,
			r.TaskID,
			r.RequestedBy,
			fmt.Sprintf("%.2f", r.ConsensusScoreAtTime),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			state,
		})
	}
	return table.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
