package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
)

func TestBuildReviewPrompt(t *testing.T) {
	profile := &panel.ReviewerProfile{ID: "security", Category: models.CategorySecurity, Temperature: 0.2}
	reviewTask := models.ReviewTask{
		ReviewerID:        "security",
		Files:             []string{"auth/login.go", "auth/session.go"},
		ChangeDescription: "rework session handling",
		Relevant:          true,
	}

	t.Run("system prompt specifies output shape", func(t *testing.T) {
		system, _ := buildReviewPrompt(reviewTask, profile, 25)

		assert.Contains(t, system, "JSON array")
		assert.Contains(t, system, `"file"`)
		assert.Contains(t, system, `"line_start"`)
		assert.Contains(t, system, `"severity"`)
		assert.Contains(t, system, `"confidence"`)
		assert.Contains(t, system, `"description"`)
		assert.Contains(t, system, "security specialist")
		assert.Contains(t, system, "at most 25 findings")
	})

	t.Run("user prompt carries the change", func(t *testing.T) {
		_, user := buildReviewPrompt(reviewTask, profile, 25)

		assert.Contains(t, user, "rework session handling")
		assert.Contains(t, user, "auth/login.go")
		assert.Contains(t, user, "auth/session.go")
	})

	t.Run("no findings cap", func(t *testing.T) {
		system, _ := buildReviewPrompt(reviewTask, profile, 0)
		assert.NotContains(t, system, "at most")
	})

	t.Run("no change description", func(t *testing.T) {
		bare := reviewTask
		bare.ChangeDescription = ""
		_, user := buildReviewPrompt(bare, profile, 25)
		assert.NotContains(t, user, "Change description")
		assert.Contains(t, user, "Files under review")
	})
}
