package ledger

import (
	"context"
	"time"

	"github.com/joescharf/quorum/internal/models"
)

// Ledger is the append-only audit trail of emergency bypasses. No
// operation updates or removes an existing record; a second bypass
// for the same task id is a new, independent record.
type Ledger interface {
	// RecordBypass appends one bypass record. Fails if reason is
	// empty or whitespace.
	RecordBypass(ctx context.Context, taskID, reason, requestedBy string, csAtBypass float64) (*models.BypassRecord, error)

	// IsBypassActive reports whether any record for taskID is still
	// within its 24h window at the given instant.
	IsBypassActive(ctx context.Context, taskID string, now time.Time) (bool, error)

	// ListBypasses returns all records for taskID, newest first. An
	// empty taskID returns every record.
	ListBypasses(ctx context.Context, taskID string) ([]*models.BypassRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
