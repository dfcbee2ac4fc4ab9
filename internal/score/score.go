// Package score computes the consensus score and decision tier from
// deduplicated findings.
package score

import (
	"fmt"

	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
)

// Weights of the consensus formula:
// CS = meanWeight*mean + agreementWeight*mean*(k/n) + peakWeight*max.
// The peak term guarantees a floor of influence for a single severe,
// confident finding even when the rest of the panel reports nothing.
const (
	meanWeight      = 0.5
	agreementWeight = 0.3
	peakWeight      = 0.2
)

// Minority protection: a finding with risk at or above mprRiskFloor
// contributed by a security or reliability reviewer raises the score
// to at least mprSlope*R_max + mprOffset.
const (
	mprRiskFloor = 8.5
	mprSlope     = 0.7
	mprOffset    = 2.0
)

// Tier boundaries, inclusive on the lower edge.
const (
	tierModerateFloor  = 4.0
	tierImportantFloor = 7.0
	tierCriticalFloor  = 9.0
)

// Scorer computes consensus scores against a fixed panel.
type Scorer struct {
	panel panel.Panel
}

// NewScorer returns a Scorer for the given panel. Panics if the panel
// is empty: a zero-size panel is a misconfiguration, not a runtime
// condition to absorb.
func NewScorer(p panel.Panel) *Scorer {
	if len(p) == 0 {
		panic("score: empty reviewer panel")
	}
	return &Scorer{panel: p}
}

// Score aggregates deduplicated findings into a ConsensusScore. Pure
// and deterministic: identical inputs produce bit-identical results.
func (s *Scorer) Score(deduped []models.DeduplicatedFinding, reviewersResponded int) models.ConsensusScore {
	n := len(s.panel)
	if reviewersResponded < 0 || reviewersResponded > n {
		panic(fmt.Sprintf("score: reviewersResponded %d out of range [0,%d]", reviewersResponded, n))
	}

	cs := models.ConsensusScore{
		Tier:                     models.TierInformational,
		ContributingFindingCount: len(deduped),
		ReviewersResponded:       reviewersResponded,
		ReviewersTotal:           n,
	}
	if len(deduped) == 0 {
		return cs
	}

	var sum, rMax float64
	agreements := 0
	for i := range deduped {
		r := deduped[i].Risk()
		sum += r
		if r > rMax {
			rMax = r
		}
		agreements += len(deduped[i].ReviewerIDs)
	}
	mean := sum / float64(len(deduped))

	value := meanWeight*mean +
		agreementWeight*mean*(float64(agreements)/float64(n)) +
		peakWeight*rMax

	if floor, ok := s.minorityFloor(deduped, rMax); ok && floor > value {
		value = floor
	}

	cs.Value = value
	cs.Tier = TierFor(value)
	return cs
}

// minorityFloor evaluates the minority protection rule: security and
// reliability false negatives are disproportionately costly, so one
// such specialist reporting a very severe, very confident finding
// guarantees a high score floor. The floor is computed from the
// maximum risk across all findings, not just the triggering one.
func (s *Scorer) minorityFloor(deduped []models.DeduplicatedFinding, rMax float64) (float64, bool) {
	for i := range deduped {
		d := &deduped[i]
		if d.Risk() < mprRiskFloor {
			continue
		}
		for _, id := range d.ReviewerIDs {
			switch s.panel.Category(id) {
			case models.CategorySecurity, models.CategoryReliability:
				return mprSlope*rMax + mprOffset, true
			}
		}
	}
	return 0, false
}

// TierFor maps a consensus score value onto its decision tier.
func TierFor(value float64) models.Tier {
	switch {
	case value >= tierCriticalFloor:
		return models.TierCritical
	case value >= tierImportantFloor:
		return models.TierImportant
	case value >= tierModerateFloor:
		return models.TierModerate
	default:
		return models.TierInformational
	}
}

// DecisionFor maps a tier onto the action the caller should take.
func DecisionFor(tier models.Tier) models.Decision {
	switch tier {
	case models.TierCritical:
		return models.DecisionBlock
	case models.TierImportant:
		return models.DecisionNeedsHuman
	default:
		return models.DecisionApprove
	}
}
