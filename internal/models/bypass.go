package models

import "time"

// BypassTTL is how long an emergency bypass stays active.
const BypassTTL = 24 * time.Hour

// BypassRecord is one human override of a blocking decision. Records
// are append-only: once written they are never mutated or deleted.
type BypassRecord struct {
	ID                   string    `json:"id"`
	TaskID               string    `json:"task_id"`
	Reason               string    `json:"reason"`
	RequestedBy          string    `json:"requested_by"`
	CreatedAt            time.Time `json:"created_at"`
	ExpiresAt            time.Time `json:"expires_at"`
	ConsensusScoreAtTime float64   `json:"consensus_score_at_bypass"`
}

// Active reports whether the record is still within its 24h window at
// the given instant. Expiry is evaluated at read time.
func (b *BypassRecord) Active(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}
