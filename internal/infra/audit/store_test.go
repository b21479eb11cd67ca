package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mousecolony/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Dialect: DialectSQLite, DSN: filepath.Join(t.TempDir(), "audit.db")}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// steppingClock advances one minute per call.
func steppingClock() core.ClockFunc {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func TestStoreRecordsServiceOperations(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine(),
		core.WithClock(steppingClock()),
		core.WithAuditRecorder(store))

	cage, _, err := svc.CreateCage(ctx, core.Cage{Name: "100"})
	if err != nil {
		t.Fatalf("create cage: %v", err)
	}
	if _, _, err := svc.CreateCage(ctx, core.Cage{Name: "100"}); err == nil {
		t.Fatalf("expected duplicate cage error")
	}
	if _, _, err := svc.CreateGene(ctx, core.Gene{Name: "Cre"}); err != nil {
		t.Fatalf("create gene: %v", err)
	}
	if _, err := svc.Summary(ctx); err != nil {
		t.Fatalf("summary: %v", err)
	}

	entries, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected three audited operations, got %+v", entries)
	}
	if entries[0].Operation != "create_gene" || entries[2].Operation != "create_cage" {
		t.Fatalf("entries must be newest first: %+v", entries)
	}
	failed := entries[1]
	if failed.Status != core.AuditStatusError || failed.Error == "" || failed.Entity != core.EntityCage {
		t.Fatalf("unexpected failed entry %+v", failed)
	}
	first := entries[2]
	if first.EntityID != cage.ID || first.Action != core.ActionCreate || first.Status != core.AuditStatusSuccess {
		t.Fatalf("unexpected create entry %+v", first)
	}
	if !entries[0].Timestamp.After(entries[2].Timestamp) {
		t.Fatalf("timestamps must round trip in order: %v vs %v", entries[0].Timestamp, entries[2].Timestamp)
	}
}

func TestStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, entry := range []core.AuditEntry{
		{Operation: "wean", EntityID: "cage-1", Status: core.AuditStatusSuccess, Duration: 1500 * time.Microsecond},
		{Operation: "sack", EntityID: "cage-1", Status: core.AuditStatusSuccess},
		{Operation: "wean", EntityID: "cage-2", Status: core.AuditStatusSuccess},
	} {
		entry.Timestamp = base.Add(time.Duration(i) * time.Hour)
		store.Record(ctx, entry)
	}

	byCage, err := store.List(ctx, Filter{EntityID: "cage-1"})
	if err != nil || len(byCage) != 2 || byCage[0].Operation != "sack" {
		t.Fatalf("entity filter: %+v %v", byCage, err)
	}
	if byCage[1].Duration != 1500*time.Microsecond {
		t.Fatalf("duration must round trip, got %v", byCage[1].Duration)
	}
	weans, err := store.List(ctx, Filter{Operation: "wean", Since: base.Add(time.Hour)})
	if err != nil || len(weans) != 1 || weans[0].EntityID != "cage-2" {
		t.Fatalf("operation/since filter: %+v %v", weans, err)
	}
	limited, err := store.List(ctx, Filter{Limit: 1})
	if err != nil || len(limited) != 1 || limited[0].EntityID != "cage-2" {
		t.Fatalf("limit: %+v %v", limited, err)
	}
}

func TestOpenValidatesConfig(t *testing.T) {
	if _, err := Open(Config{Dialect: "oracle", DSN: "x"}, nil); err == nil {
		t.Fatalf("expected unknown dialect error")
	}
	if _, err := Open(Config{}, nil); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}
