package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRequest(t *testing.T) {
	reviewFiles = []string{"a.go"}
	reviewDescription = "change"
	t.Cleanup(func() {
		reviewFiles = nil
		reviewDescription = ""
	})

	req, err := reviewRequest("task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", req.TaskID)
	assert.Equal(t, []string{"a.go"}, req.Files)
	assert.Equal(t, "change", req.ChangeDescription)
}

func TestReviewRequest_TrimsTaskID(t *testing.T) {
	req, err := reviewRequest("  task-1  ")
	require.NoError(t, err)
	assert.Equal(t, "task-1", req.TaskID)
}

func TestReviewRequest_BlankTaskID(t *testing.T) {
	for _, taskID := range []string{"", "   "} {
		_, err := reviewRequest(taskID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "task id")
	}
}

func TestReviewCommands_BlankTaskIDErrorsWithoutPanic(t *testing.T) {
	testEnv(t)

	assert.NotPanics(t, func() {
		err := reviewPrepareRun(" ")
		assert.Error(t, err)
	})
}
