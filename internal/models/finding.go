package models

// FindingCategory classifies what kind of defect a finding describes.
type FindingCategory string

const (
	CategorySecurity        FindingCategory = "security"
	CategoryCorrectness     FindingCategory = "correctness"
	CategoryPerformance     FindingCategory = "performance"
	CategoryMaintainability FindingCategory = "maintainability"
	CategoryReliability     FindingCategory = "reliability"
)

// SeverityMin and SeverityMax bound the 1-10 scales used for both
// severity and confidence. Reviewers occasionally over/under-shoot;
// out-of-range values are clamped at extraction, never discarded.
const (
	SeverityMin = 1
	SeverityMax = 10
)

// Finding is a single structured issue extracted from one reviewer's
// raw output. Immutable once extracted.
type Finding struct {
	File        string          `json:"file"`
	LineStart   int             `json:"line_start"`
	LineEnd     int             `json:"line_end"`
	Category    FindingCategory `json:"category"`
	Severity    int             `json:"severity"`
	Confidence  int             `json:"confidence"`
	Description string          `json:"description"`
	Remediation string          `json:"remediation,omitempty"`
	ReviewerID  string          `json:"reviewer_id"`
}

// DeduplicatedFinding is one merged issue representing all raw
// findings that share a fingerprint. Derived per review; never
// persisted across reviews.
type DeduplicatedFinding struct {
	Fingerprint    string          `json:"fingerprint"`
	File           string          `json:"file"`
	LineStart      int             `json:"line_start"`
	LineEnd        int             `json:"line_end"`
	Category       FindingCategory `json:"category"`
	Description    string          `json:"description"`
	Remediation    string          `json:"remediation,omitempty"`
	MaxSeverity    int             `json:"max_severity"`
	MaxConfidence  int             `json:"max_confidence"`
	ReviewerIDs    []string        `json:"reviewer_ids"`
}

// Risk returns the per-finding risk term severity*confidence/10,
// ranging 0.1 (1x1) to 10.0 (10x10).
func (d *DeduplicatedFinding) Risk() float64 {
	return float64(d.MaxSeverity) * float64(d.MaxConfidence) / 10.0
}

// HasReviewer reports whether the given reviewer contributed to this
// merged finding.
func (d *DeduplicatedFinding) HasReviewer(id string) bool {
	for _, r := range d.ReviewerIDs {
		if r == id {
			return true
		}
	}
	return false
}
