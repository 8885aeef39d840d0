package usecase

import (
	"context"
	"time"

	"custodia/internal/domain"
)

// ledgerStub is a correctly hash-linked in-test ledger. Tests that need a
// broken chain mutate entries directly after appending.
type ledgerStub struct {
	entries []domain.AuditEntry
	clock   func() time.Time
}

func newLedgerStub() *ledgerStub {
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	n := 0
	return &ledgerStub{clock: func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}}
}

func (l *ledgerStub) Append(ctx context.Context, req AuditAppend) (domain.AuditEntry, error) {
	entry := domain.AuditEntry{
		EventType: req.EventType,
		DeviceID:  req.DeviceID,
		MediaID:   req.MediaID,
		CreatedAt: req.CreatedAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.clock()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	dataJSON, dataHash, err := HashEventData(req.EventData)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	entry.EventData = dataJSON
	entry.EventDataHash = dataHash

	entry.Seq = int64(len(l.entries)) + 1
	entry.PrevHash = domain.GenesisHash
	if n := len(l.entries); n > 0 {
		entry.PrevHash = l.entries[n-1].EntryHash
	}
	entry.EntryHash, err = ComputeEntryHash(entry)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	l.entries = append(l.entries, entry)
	return entry, nil
}

func (l *ledgerStub) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	out := make([]domain.AuditEntry, 0)
	for _, entry := range l.entries {
		if filter.FromSeq > 0 && entry.Seq < filter.FromSeq {
			continue
		}
		if filter.ToSeq > 0 && entry.Seq > filter.ToSeq {
			continue
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

func (l *ledgerStub) Head(ctx context.Context) (int64, string, error) {
	if len(l.entries) == 0 {
		return 0, domain.GenesisHash, nil
	}
	last := l.entries[len(l.entries)-1]
	return last.Seq, last.EntryHash, nil
}
