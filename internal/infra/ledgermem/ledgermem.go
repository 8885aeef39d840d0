// Package ledgermem is the in-memory custody chain used when no database
// is configured and throughout the tests. A single mutex held across the
// head read and the insert gives the same no-fork guarantee the database
// ledger gets from its row lock.
package ledgermem

import (
	"context"
	"sync"
	"time"

	"custodia/internal/domain"
	"custodia/internal/usecase"

	"github.com/google/uuid"
)

type Ledger struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
	clock   func() time.Time
}

func New() *Ledger {
	return &Ledger{clock: time.Now}
}

func NewWithClock(clock func() time.Time) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{clock: clock}
}

func (l *Ledger) Append(ctx context.Context, req usecase.AuditAppend) (domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditEntry{}, err
	}

	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		EventType: req.EventType,
		DeviceID:  req.DeviceID,
		MediaID:   req.MediaID,
		CreatedAt: req.CreatedAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.clock()
	}
	entry.CreatedAt = entry.CreatedAt.UTC().Truncate(time.Microsecond)

	dataJSON, dataHash, err := usecase.HashEventData(req.EventData)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	entry.EventData = dataJSON
	entry.EventDataHash = dataHash

	l.mu.Lock()
	defer l.mu.Unlock()

	prevHash := domain.GenesisHash
	if n := len(l.entries); n > 0 {
		prevHash = l.entries[n-1].EntryHash
	}
	entry.Seq = int64(len(l.entries)) + 1
	entry.PrevHash = prevHash

	entryHash, err := usecase.ComputeEntryHash(entry)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	entry.EntryHash = entryHash

	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *Ledger) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.AuditEntry, 0)
	for _, entry := range l.entries {
		if filter.FromSeq > 0 && entry.Seq < filter.FromSeq {
			continue
		}
		if filter.ToSeq > 0 && entry.Seq > filter.ToSeq {
			break
		}
		if filter.DeviceID != "" && entry.DeviceID != filter.DeviceID {
			continue
		}
		if filter.MediaID != "" && entry.MediaID != filter.MediaID {
			continue
		}
		if filter.EventType != "" && entry.EventType != filter.EventType {
			continue
		}
		out = append(out, entry)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (l *Ledger) Head(ctx context.Context) (int64, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return 0, domain.GenesisHash, nil
	}
	last := l.entries[len(l.entries)-1]
	return last.Seq, last.EntryHash, nil
}

// Tamper overwrites a stored entry in place, bypassing every invariant.
// It exists only so integrity tests can simulate out-of-band mutation.
func (l *Ledger) Tamper(seq int64, mutate func(*domain.AuditEntry)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := int(seq) - 1
	if idx < 0 || idx >= len(l.entries) {
		return false
	}
	mutate(&l.entries[idx])
	return true
}
