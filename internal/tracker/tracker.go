// Package tracker keeps the latest ticket creation outcome per identity in memory.
package tracker

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/ticket-canvas/internal/domain"
)

// Tracker maps identity to its latest OperationRecord. Each MarkInProgress issues a new
// sequence number; terminal writes carrying an older sequence are dropped, so a slow
// earlier submission cannot overwrite a newer one.
type Tracker struct {
	mu      sync.Mutex
	records map[string]domain.OperationRecord
	seq     map[string]uint64
	now     func() time.Time
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		records: make(map[string]domain.OperationRecord),
		seq:     make(map[string]uint64),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Key normalizes an identity.
func Key(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// MarkInProgress replaces any record for identity and returns the sequence the
// background task must present when finishing.
func (t *Tracker) MarkInProgress(identity, submissionID string) uint64 {
	key := Key(identity)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq[key]++
	seq := t.seq[key]
	t.records[key] = domain.OperationRecord{
		Identity:     key,
		State:        domain.OperationInProgress,
		SubmissionID: submissionID,
		Sequence:     seq,
		StartedAt:    t.now(),
	}
	return seq
}

// MarkCompleted records a created ticket. It returns false when seq is stale or the
// record is already terminal.
func (t *Tracker) MarkCompleted(identity string, seq uint64, ticketID int64) bool {
	return t.finish(identity, seq, func(r *domain.OperationRecord) {
		r.State = domain.OperationCompleted
		r.TicketID = &ticketID
	})
}

// MarkFailed records a failed creation. Same staleness rule as MarkCompleted.
func (t *Tracker) MarkFailed(identity string, seq uint64, errMsg string) bool {
	return t.finish(identity, seq, func(r *domain.OperationRecord) {
		r.State = domain.OperationFailed
		r.ErrorMessage = errMsg
	})
}

func (t *Tracker) finish(identity string, seq uint64, apply func(*domain.OperationRecord)) bool {
	key := Key(identity)
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[key]
	if !ok || rec.Sequence != seq || t.seq[key] != seq || rec.Terminal() {
		return false
	}
	finished := t.now()
	rec.FinishedAt = &finished
	apply(&rec)
	t.records[key] = rec
	return true
}

// Get returns the record for identity.
func (t *Tracker) Get(identity string) (domain.OperationRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[Key(identity)]
	return rec, ok
}

// Clear removes the record. The sequence counter is kept so in-flight tasks for the
// cleared record stay stale.
func (t *Tracker) Clear(identity string) bool {
	key := Key(identity)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[key]
	delete(t.records, key)
	return ok
}

// ClearIf removes the record only if it still carries seq.
func (t *Tracker) ClearIf(identity string, seq uint64) bool {
	key := Key(identity)
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[key]
	if !ok || rec.Sequence != seq {
		return false
	}
	delete(t.records, key)
	return true
}

// Snapshot lists all records ordered by identity.
func (t *Tracker) Snapshot() []domain.OperationRecord {
	t.mu.Lock()
	out := make([]domain.OperationRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}
