package ledgermem

import (
	"context"
	"sync"
	"testing"

	"custodia/internal/domain"
	"custodia/internal/usecase"
)

func TestLedger_ConcurrentAppendsStayContiguous(t *testing.T) {
	ledger := New()
	ctx := context.Background()

	const workers = 8
	const perWorker = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := ledger.Append(ctx, usecase.AuditAppend{
					EventType: domain.AuditEventMediaUploaded,
					DeviceID:  "device-1",
					EventData: map[string]any{"worker": w, "iteration": i},
				})
				if err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("append: %v", err)
	}

	entries, err := ledger.List(ctx, domain.AuditFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != workers*perWorker {
		t.Fatalf("expected %d entries, got %d", workers*perWorker, len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != int64(i)+1 {
			t.Fatalf("sequence gap at index %d: seq %d", i, entry.Seq)
		}
	}

	check, err := usecase.VerifyChain(ctx, ledger, 0, 0)
	if err != nil {
		t.Fatalf("verify chain: %v", err)
	}
	if !check.Intact {
		t.Fatalf("chain broken at %d after concurrent appends", check.BrokenAt)
	}
}

func TestLedger_HeadAndGenesis(t *testing.T) {
	ledger := New()
	ctx := context.Background()

	seq, hash, err := ledger.Head(ctx)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if seq != 0 || hash != domain.GenesisHash {
		t.Fatalf("empty ledger head should be genesis: seq=%d hash=%s", seq, hash)
	}

	entry, err := ledger.Append(ctx, usecase.AuditAppend{
		EventType: domain.AuditEventDeviceRegistered,
		DeviceID:  "device-1",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.PrevHash != domain.GenesisHash {
		t.Fatalf("first entry must link to genesis, got %s", entry.PrevHash)
	}

	seq, hash, err = ledger.Head(ctx)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if seq != 1 || hash != entry.EntryHash {
		t.Fatalf("head not advanced: seq=%d hash=%s", seq, hash)
	}
}

func TestLedger_ListFilters(t *testing.T) {
	ledger := New()
	ctx := context.Background()

	appends := []usecase.AuditAppend{
		{EventType: domain.AuditEventDeviceRegistered, DeviceID: "cam-1"},
		{EventType: domain.AuditEventMediaUploaded, DeviceID: "cam-1", MediaID: "media-1"},
		{EventType: domain.AuditEventMediaUploaded, DeviceID: "cam-2", MediaID: "media-2"},
		{EventType: domain.AuditEventMediaVerified, DeviceID: "cam-2", MediaID: "media-2"},
	}
	for i, req := range appends {
		if _, err := ledger.Append(ctx, req); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	byDevice, err := ledger.List(ctx, domain.AuditFilter{DeviceID: "cam-2"})
	if err != nil {
		t.Fatalf("list by device: %v", err)
	}
	if len(byDevice) != 2 {
		t.Fatalf("expected 2 entries for cam-2, got %d", len(byDevice))
	}

	byType, err := ledger.List(ctx, domain.AuditFilter{EventType: domain.AuditEventMediaUploaded})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("expected 2 uploaded entries, got %d", len(byType))
	}

	ranged, err := ledger.List(ctx, domain.AuditFilter{FromSeq: 2, ToSeq: 3})
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if len(ranged) != 2 || ranged[0].Seq != 2 || ranged[1].Seq != 3 {
		t.Fatalf("unexpected range result: %+v", ranged)
	}

	limited, err := ledger.List(ctx, domain.AuditFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].Seq != 1 {
		t.Fatalf("unexpected limit result: %+v", limited)
	}
}

func TestLedger_TamperDetection(t *testing.T) {
	ledger := New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := ledger.Append(ctx, usecase.AuditAppend{
			EventType: domain.AuditEventMediaUploaded,
			MediaID:   "media-1",
			EventData: map[string]any{"iteration": i},
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	if !ledger.Tamper(2, func(entry *domain.AuditEntry) {
		entry.EventData = []byte(`{"iteration":99}`)
	}) {
		t.Fatal("tamper target not found")
	}

	check, err := usecase.VerifyChain(ctx, ledger, 0, 0)
	if err != nil {
		t.Fatalf("verify chain: %v", err)
	}
	if check.Intact {
		t.Fatal("expected broken chain after tamper")
	}
	if check.BrokenAt != 2 {
		t.Fatalf("expected break at seq 2, got %d", check.BrokenAt)
	}
}
