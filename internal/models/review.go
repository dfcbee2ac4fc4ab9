package models

// Tier buckets a consensus score into a response level.
type Tier string

const (
	TierInformational Tier = "informational"
	TierModerate      Tier = "moderate"
	TierImportant     Tier = "important"
	TierCritical      Tier = "critical"
)

// Decision is what the caller should do with the change.
type Decision string

const (
	DecisionApprove    Decision = "approve"
	DecisionNeedsHuman Decision = "needs_human"
	DecisionBlock      Decision = "block"
)

// ReviewRequest describes one code change to be reviewed.
type ReviewRequest struct {
	TaskID            string   `json:"task_id"`
	Files             []string `json:"files"`
	ChangeDescription string   `json:"change_description"`
}

// ReviewTask is the unit of work handed to the external agent runtime
// for one reviewer. Immutable after creation.
type ReviewTask struct {
	ReviewerID        string   `json:"reviewer_id"`
	Files             []string `json:"files"`
	ChangeDescription string   `json:"change_description"`
	Relevant          bool     `json:"relevant"`
}

// ReviewerResponse is what came back (or didn't) from one reviewer.
// Received=false models a timeout or crash of the external runtime;
// it is an expected state, not an error.
type ReviewerResponse struct {
	ReviewerID string `json:"reviewer_id"`
	RawOutput  string `json:"raw_output"`
	Received   bool   `json:"received"`
	Error      string `json:"error,omitempty"`
}

// ReviewerOutcome summarizes how one reviewer's response fared during
// aggregation. Parse errors are carried as data, never thrown.
type ReviewerOutcome struct {
	ReviewerID   string `json:"reviewer_id"`
	Received     bool   `json:"received"`
	FindingCount int    `json:"finding_count"`
	ParseError   string `json:"parse_error,omitempty"`
}

// ConsensusScore is the aggregate produced per review.
type ConsensusScore struct {
	Value                    float64 `json:"value"`
	Tier                     Tier    `json:"tier"`
	ContributingFindingCount int     `json:"contributing_finding_count"`
	ReviewersResponded       int     `json:"reviewers_responded"`
	ReviewersTotal           int     `json:"reviewers_total"`
}

// ReviewResult is the complete output of one finalized review. Owned
// by the caller once returned; the engine keeps no reference to it.
type ReviewResult struct {
	TaskID               string                `json:"task_id"`
	PerReviewerOutcomes  []ReviewerOutcome     `json:"per_reviewer_outcomes"`
	DeduplicatedFindings []DeduplicatedFinding `json:"deduplicated_findings"`
	ConsensusScore       ConsensusScore        `json:"consensus_score"`
	Decision             Decision              `json:"decision"`
}
