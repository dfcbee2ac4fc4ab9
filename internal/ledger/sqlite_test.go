package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/quorum/internal/models"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	l, err := NewSQLiteLedger(dbPath)
	require.NoError(t, err)

	err = l.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { l.Close() })
	return l
}

func TestNewSQLiteLedger_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	l, err := NewSQLiteLedger(dbPath)
	require.NoError(t, err)
	defer l.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// Running migrate again should be a no-op
	err := l.Migrate(ctx)
	assert.NoError(t, err)
}

func TestRecordBypass(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rec, err := l.RecordBypass(ctx, "task-1", "prod incident, shipping hotfix", "oncall", 9.2)
	require.NoError(t, err)

	assert.Len(t, rec.ID, 26, "ULID id")
	assert.Equal(t, "task-1", rec.TaskID)
	assert.Equal(t, "oncall", rec.RequestedBy)
	assert.Equal(t, 9.2, rec.ConsensusScoreAtTime)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt.Add(models.BypassTTL), rec.ExpiresAt)
}

func TestRecordBypass_RequiresReason(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.RecordBypass(ctx, "task-1", "", "oncall", 0)
	assert.Error(t, err)

	_, err = l.RecordBypass(ctx, "task-1", "   ", "oncall", 0)
	assert.Error(t, err)

	records, err := l.ListBypasses(ctx, "task-1")
	require.NoError(t, err)
	assert.Empty(t, records, "rejected bypasses must not be persisted")
}

func TestRecordBypass_RequiresTaskID(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.RecordBypass(context.Background(), " ", "reason", "", 0)
	assert.Error(t, err)
}

func TestIsBypassActive(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rec, err := l.RecordBypass(ctx, "task-1", "hotfix", "oncall", 9.2)
	require.NoError(t, err)

	// Just before the 24h boundary.
	active, err := l.IsBypassActive(ctx, "task-1", rec.CreatedAt.Add(24*time.Hour-time.Minute))
	require.NoError(t, err)
	assert.True(t, active)

	// Just after.
	active, err = l.IsBypassActive(ctx, "task-1", rec.CreatedAt.Add(24*time.Hour+time.Minute))
	require.NoError(t, err)
	assert.False(t, active)

	// Different task is unaffected.
	active, err = l.IsBypassActive(ctx, "task-2", rec.CreatedAt)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestIsBypassActive_AnyNonExpiredRecordCounts(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	old, err := l.RecordBypass(ctx, "task-1", "first", "a", 9.0)
	require.NoError(t, err)
	_, err = l.RecordBypass(ctx, "task-1", "second", "b", 9.1)
	require.NoError(t, err)

	// Past the first record's window but within the second's.
	active, err := l.IsBypassActive(ctx, "task-1", old.ExpiresAt.Add(time.Millisecond))
	require.NoError(t, err)
	assert.True(t, active)
}

func TestListBypasses(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.RecordBypass(ctx, "task-1", "first", "a", 9.0)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond) // distinct created_at timestamps
	_, err = l.RecordBypass(ctx, "task-1", "second", "b", 9.1)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = l.RecordBypass(ctx, "task-2", "other task", "c", 7.5)
	require.NoError(t, err)

	// Filtered by task, newest first.
	records, err := l.ListBypasses(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "second", records[0].Reason)
	assert.Equal(t, "first", records[1].Reason)

	// Empty taskID returns everything.
	all, err := l.ListBypasses(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListBypasses_Empty(t *testing.T) {
	l := newTestLedger(t)

	records, err := l.ListBypasses(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestBypassRecord_ActiveBoundary(t *testing.T) {
	now := time.Now().UTC()
	rec := &models.BypassRecord{CreatedAt: now, ExpiresAt: now.Add(models.BypassTTL)}

	assert.True(t, rec.Active(now.Add(23*time.Hour+59*time.Minute)))
	assert.False(t, rec.Active(now.Add(24*time.Hour)), "expiry instant itself is inactive")
	assert.False(t, rec.Active(now.Add(24*time.Hour+time.Minute)))
}
