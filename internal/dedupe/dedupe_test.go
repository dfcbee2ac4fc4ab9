package dedupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/quorum/internal/models"
)

func finding(reviewer, file string, line int, category models.FindingCategory, sev, conf int, desc string) models.Finding {
	return models.Finding{
		File:        file,
		LineStart:   line,
		LineEnd:     line,
		Category:    category,
		Severity:    sev,
		Confidence:  conf,
		Description: desc,
		ReviewerID:  reviewer,
	}
}

func TestFingerprint_Stable(t *testing.T) {
	f := finding("security", "auth/login.go", 10, models.CategorySecurity, 8, 9, "injection")
	assert.Equal(t, Fingerprint(f), Fingerprint(f))
	assert.Len(t, Fingerprint(f), 16)
}

func TestFingerprint_LineBuckets(t *testing.T) {
	a := finding("security", "auth/login.go", 10, models.CategorySecurity, 8, 9, "injection")
	b := finding("reliability", "auth/login.go", 11, models.CategorySecurity, 7, 8, "injection")
	c := finding("security", "auth/login.go", 12, models.CategorySecurity, 8, 9, "injection")

	// 10 and 11 share a bucket; 12 starts the next one.
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestFingerprint_DistinguishesFileAndCategory(t *testing.T) {
	a := finding("security", "a.go", 10, models.CategorySecurity, 8, 9, "x")
	b := finding("security", "b.go", 10, models.CategorySecurity, 8, 9, "x")
	c := finding("security", "a.go", 10, models.CategoryCorrectness, 8, 9, "x")

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestDeduplicate_MergesMaxSeverityAndConfidence(t *testing.T) {
	findings := []models.Finding{
		finding("security", "auth/login.go", 10, models.CategorySecurity, 8, 6, "SQL injection here"),
		finding("correctness", "auth/login.go", 11, models.CategorySecurity, 5, 9, "injection"),
	}

	deduped := Deduplicate(findings)
	require.Len(t, deduped, 1)

	d := deduped[0]
	assert.Equal(t, 8, d.MaxSeverity)
	assert.Equal(t, 9, d.MaxConfidence)
	assert.Equal(t, []string{"correctness", "security"}, d.ReviewerIDs)
	assert.Equal(t, "SQL injection here", d.Description, "longest description wins")
	assert.Equal(t, 10, d.LineStart)
	assert.Equal(t, 11, d.LineEnd)
}

func TestDeduplicate_DescriptionTieBreaksByReviewerID(t *testing.T) {
	findings := []models.Finding{
		finding("zeta", "a.go", 10, models.CategorySecurity, 5, 5, "same length abc"),
		finding("alpha", "a.go", 10, models.CategorySecurity, 5, 5, "same length xyz"),
	}

	deduped := Deduplicate(findings)
	require.Len(t, deduped, 1)
	assert.Equal(t, "same length xyz", deduped[0].Description)
}

func TestDeduplicate_SameReviewerCountsOnce(t *testing.T) {
	findings := []models.Finding{
		finding("security", "a.go", 10, models.CategorySecurity, 8, 9, "dup report"),
		finding("security", "a.go", 11, models.CategorySecurity, 8, 9, "dup report"),
	}

	deduped := Deduplicate(findings)
	require.Len(t, deduped, 1)
	assert.Equal(t, []string{"security"}, deduped[0].ReviewerIDs)
}

func TestDeduplicate_PermutationInvariant(t *testing.T) {
	findings := []models.Finding{
		finding("security", "a.go", 10, models.CategorySecurity, 8, 9, "injection in query builder"),
		finding("reliability", "a.go", 11, models.CategorySecurity, 6, 7, "injection"),
		finding("performance", "b.go", 40, models.CategoryPerformance, 4, 8, "n+1 query"),
	}
	reversed := []models.Finding{findings[2], findings[1], findings[0]}

	assert.Equal(t, Deduplicate(findings), Deduplicate(reversed))
}

func TestDeduplicate_Empty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}
