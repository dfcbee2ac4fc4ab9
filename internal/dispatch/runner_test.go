package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/quorum/internal/models"
	"github.com/joescharf/quorum/internal/panel"
)

func testPanel() panel.Panel {
	return panel.Panel{
		{ID: "security", Category: models.CategorySecurity, Temperature: 0.2},
		{ID: "performance", Category: models.CategoryPerformance, Temperature: 0.3},
	}
}

func newTestRunner(complete completeFunc) *Runner {
	r := NewRunner(testPanel(), "test-key", "test-model", time.Second, 25)
	r.complete = complete
	return r
}

func task(reviewer string, relevant bool) models.ReviewTask {
	return models.ReviewTask{
		ReviewerID:        reviewer,
		Files:             []string{"a.go"},
		ChangeDescription: "change",
		Relevant:          relevant,
	}
}

func TestRun_OneResponsePerTaskInOrder(t *testing.T) {
	r := newTestRunner(func(_ context.Context, _, _ string, _ float64) (string, error) {
		return "[]", nil
	})

	responses := r.Run(context.Background(), []models.ReviewTask{
		task("security", true),
		task("performance", true),
	})

	require.Len(t, responses, 2)
	assert.Equal(t, "security", responses[0].ReviewerID)
	assert.Equal(t, "performance", responses[1].ReviewerID)
	for _, resp := range responses {
		assert.True(t, resp.Received)
		assert.Equal(t, "[]", resp.RawOutput)
	}
}

func TestRun_SkipsIrrelevantTasks(t *testing.T) {
	var mu sync.Mutex
	called := 0
	r := newTestRunner(func(_ context.Context, _, _ string, _ float64) (string, error) {
		mu.Lock()
		called++
		mu.Unlock()
		return "[]", nil
	})

	responses := r.Run(context.Background(), []models.ReviewTask{
		task("security", true),
		task("performance", false),
	})

	require.Len(t, responses, 2)
	assert.True(t, responses[0].Received)
	assert.False(t, responses[1].Received, "irrelevant task is not dispatched")
	assert.Empty(t, responses[1].Error)
	assert.Equal(t, 1, called)
}

func TestRun_TransportErrorYieldsNotReceived(t *testing.T) {
	r := newTestRunner(func(_ context.Context, _, _ string, _ float64) (string, error) {
		return "", fmt.Errorf("connection reset")
	})

	responses := r.Run(context.Background(), []models.ReviewTask{task("security", true)})

	require.Len(t, responses, 1)
	assert.False(t, responses[0].Received)
	assert.Contains(t, responses[0].Error, "connection reset")
}

func TestRun_TimeoutYieldsNotReceived(t *testing.T) {
	r := NewRunner(testPanel(), "test-key", "test-model", 10*time.Millisecond, 25)
	r.complete = func(ctx context.Context, _, _ string, _ float64) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	responses := r.Run(context.Background(), []models.ReviewTask{task("security", true)})

	require.Len(t, responses, 1)
	assert.False(t, responses[0].Received)
	assert.NotEmpty(t, responses[0].Error)
}

func TestRun_UnknownReviewer(t *testing.T) {
	r := newTestRunner(func(_ context.Context, _, _ string, _ float64) (string, error) {
		return "[]", nil
	})

	responses := r.Run(context.Background(), []models.ReviewTask{task("impostor", true)})

	require.Len(t, responses, 1)
	assert.False(t, responses[0].Received)
	assert.Contains(t, responses[0].Error, "not on panel")
}

func TestRun_UsesProfileTemperature(t *testing.T) {
	var mu sync.Mutex
	temps := make(map[float64]bool)
	r := newTestRunner(func(_ context.Context, _, _ string, temperature float64) (string, error) {
		mu.Lock()
		temps[temperature] = true
		mu.Unlock()
		return "[]", nil
	})

	r.Run(context.Background(), []models.ReviewTask{
		task("security", true),
		task("performance", true),
	})

	assert.True(t, temps[0.2])
	assert.True(t, temps[0.3])
}

func TestNewRunner_DefaultTimeout(t *testing.T) {
	r := NewRunner(testPanel(), "", "test-model", 0, 0)
	assert.Equal(t, defaultTimeout, r.timeout)
}
