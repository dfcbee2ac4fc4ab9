// Package dedupe merges findings that point at the same underlying
// issue across reviewers.
package dedupe

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/joescharf/quorum/internal/models"
)

// lineBucket is the coarsening applied to line_start so that
// reviewers pointing at slightly different lines of the same defect
// still merge.
const lineBucket = 3

// Fingerprint computes the stable identity of a finding: a short hex
// prefix of sha256 over (file, line_start/3, category).
func Fingerprint(f models.Finding) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s:%d:%s", f.File, f.LineStart/lineBucket, f.Category)
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}

// Deduplicate groups findings by fingerprint and merges each group
// into one DeduplicatedFinding. Output order is sorted by fingerprint
// so permuted input yields identical output.
func Deduplicate(findings []models.Finding) []models.DeduplicatedFinding {
	groups := make(map[string][]models.Finding)
	for _, f := range findings {
		fp := Fingerprint(f)
		groups[fp] = append(groups[fp], f)
	}

	fps := make([]string, 0, len(groups))
	for fp := range groups {
		fps = append(fps, fp)
	}
	sort.Strings(fps)

	deduped := make([]models.DeduplicatedFinding, 0, len(fps))
	for _, fp := range fps {
		deduped = append(deduped, merge(fp, groups[fp]))
	}
	return deduped
}

// merge collapses one fingerprint group. Severity and confidence take
// the maximum observed value: a more alarmed reviewer is not diluted
// by a calmer one reporting the same defect.
func merge(fp string, group []models.Finding) models.DeduplicatedFinding {
	d := models.DeduplicatedFinding{
		Fingerprint: fp,
		File:        group[0].File,
		LineStart:   group[0].LineStart,
		LineEnd:     group[0].LineEnd,
		Category:    group[0].Category,
	}

	rep := pickRepresentative(group)
	d.Description = rep.Description
	d.Remediation = rep.Remediation

	seen := make(map[string]bool)
	for _, f := range group {
		if f.LineStart < d.LineStart {
			d.LineStart = f.LineStart
		}
		if f.LineEnd > d.LineEnd {
			d.LineEnd = f.LineEnd
		}
		if f.Severity > d.MaxSeverity {
			d.MaxSeverity = f.Severity
		}
		if f.Confidence > d.MaxConfidence {
			d.MaxConfidence = f.Confidence
		}
		// A reviewer reporting the same defect twice counts once;
		// agreement is per distinct reviewer, not per raw finding.
		if !seen[f.ReviewerID] {
			seen[f.ReviewerID] = true
			d.ReviewerIDs = append(d.ReviewerIDs, f.ReviewerID)
		}
	}
	sort.Strings(d.ReviewerIDs)
	return d
}

// pickRepresentative selects the longest non-empty description in the
// group; ties break by reviewer id ascending, then input order.
func pickRepresentative(group []models.Finding) models.Finding {
	best := group[0]
	for _, f := range group[1:] {
		switch {
		case len(f.Description) > len(best.Description):
			best = f
		case len(f.Description) == len(best.Description) && f.ReviewerID < best.ReviewerID:
			best = f
		}
	}
	return best
}
