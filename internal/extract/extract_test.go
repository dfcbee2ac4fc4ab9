package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/quorum/internal/models"
)

func response(reviewer, raw string) models.ReviewerResponse {
	return models.ReviewerResponse{ReviewerID: reviewer, RawOutput: raw, Received: true}
}

func TestExtract_NotReceived(t *testing.T) {
	ex := Extract(models.ReviewerResponse{ReviewerID: "security", Received: false})

	assert.False(t, ex.Received)
	assert.Empty(t, ex.Findings)
	assert.Empty(t, ex.ParseErr)
}

func TestExtract_BareArray(t *testing.T) {
	raw := `[{"file":"auth/login.go","line_start":10,"line_end":12,"category":"security","severity":8,"confidence":9,"description":"SQL injection","remediation":"use placeholders"}]`
	ex := Extract(response("security", raw))

	require.Len(t, ex.Findings, 1)
	f := ex.Findings[0]
	assert.Equal(t, "auth/login.go", f.File)
	assert.Equal(t, 10, f.LineStart)
	assert.Equal(t, 12, f.LineEnd)
	assert.Equal(t, models.CategorySecurity, f.Category)
	assert.Equal(t, 8, f.Severity)
	assert.Equal(t, 9, f.Confidence)
	assert.Equal(t, "security", f.ReviewerID)
	assert.Empty(t, ex.ParseErr)
}

func TestExtract_FindingsWrapper(t *testing.T) {
	raw := `{"findings":[{"file":"a.go","line_start":1,"category":"correctness","severity":5,"confidence":5,"description":"off by one"}]}`
	ex := Extract(response("correctness", raw))

	require.Len(t, ex.Findings, 1)
	assert.Equal(t, models.CategoryCorrectness, ex.Findings[0].Category)
}

func TestExtract_MarkdownFence(t *testing.T) {
	raw := "```json\n[{\"file\":\"a.go\",\"line_start\":3,\"category\":\"performance\",\"severity\":4,\"confidence\":6,\"description\":\"n+1 query\"}]\n```"
	ex := Extract(response("performance", raw))

	require.Len(t, ex.Findings, 1)
	assert.Empty(t, ex.ParseErr)
}

func TestExtract_RepairsSloppyJSON(t *testing.T) {
	// Trailing commas are a common model failure mode.
	raw := `[{"file":"a.go","line_start":5,"category":"security","severity":7,"confidence":8,"description":"hardcoded secret",},]`
	ex := Extract(response("security", raw))

	require.Len(t, ex.Findings, 1)
	assert.Equal(t, "hardcoded secret", ex.Findings[0].Description)
	assert.Empty(t, ex.ParseErr)
}

func TestExtract_GarbageOutput(t *testing.T) {
	ex := Extract(response("security", "I could not review this change, sorry."))

	assert.True(t, ex.Received)
	assert.Empty(t, ex.Findings)
	assert.NotEmpty(t, ex.ParseErr)
}

func TestExtract_EmptyOutput(t *testing.T) {
	ex := Extract(response("security", "   "))

	assert.Empty(t, ex.Findings)
	assert.NotEmpty(t, ex.ParseErr)
}

func TestExtract_EmptyArray(t *testing.T) {
	ex := Extract(response("security", "[]"))

	assert.Empty(t, ex.Findings)
	assert.Empty(t, ex.ParseErr)
}

func TestExtract_ClampsSeverityAndConfidence(t *testing.T) {
	raw := `[
		{"file":"a.go","line_start":1,"category":"security","severity":0,"confidence":15,"description":"low"},
		{"file":"a.go","line_start":9,"category":"security","severity":7.6,"confidence":-2,"description":"frac"}
	]`
	ex := Extract(response("security", raw))

	require.Len(t, ex.Findings, 2)
	assert.Equal(t, 1, ex.Findings[0].Severity)
	assert.Equal(t, 10, ex.Findings[0].Confidence)
	assert.Equal(t, 8, ex.Findings[1].Severity, "7.6 rounds to 8")
	assert.Equal(t, 1, ex.Findings[1].Confidence)
}

func TestExtract_ClampsLineRange(t *testing.T) {
	raw := `[{"file":"a.go","line_start":0,"line_end":-5,"category":"security","severity":5,"confidence":5,"description":"weird lines"}]`
	ex := Extract(response("security", raw))

	require.Len(t, ex.Findings, 1)
	assert.Equal(t, 1, ex.Findings[0].LineStart)
	assert.Equal(t, 1, ex.Findings[0].LineEnd)
}

func TestExtract_SkipsIncompleteFindings(t *testing.T) {
	raw := `[
		{"file":"","line_start":1,"category":"security","severity":5,"confidence":5,"description":"no file"},
		{"file":"a.go","line_start":1,"category":"security","severity":5,"confidence":5,"description":"  "},
		{"file":"a.go","line_start":1,"category":"security","severity":5,"confidence":5,"description":"kept"}
	]`
	ex := Extract(response("security", raw))

	require.Len(t, ex.Findings, 1)
	assert.Equal(t, "kept", ex.Findings[0].Description)
}

func TestExtract_NormalizesCategory(t *testing.T) {
	raw := `[{"file":"a.go","line_start":1,"category":" Security ","severity":5,"confidence":5,"description":"cased"}]`
	ex := Extract(response("security", raw))

	require.Len(t, ex.Findings, 1)
	assert.Equal(t, models.CategorySecurity, ex.Findings[0].Category)
}
