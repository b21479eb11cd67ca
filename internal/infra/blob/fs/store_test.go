package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mousecolony/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)

	obj, err := s.Put(ctx, "reports/needs/2024-06-01.csv", strings.NewReader("cage,need\n"), core.PutOptions{ContentType: "text/csv", Labels: map[string]string{"kind": "needs"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Key != "reports/needs/2024-06-01.csv" || obj.Size != 10 || len(obj.Checksum) != 64 {
		t.Fatalf("unexpected object %+v", obj)
	}
	if _, err := s.Put(ctx, "reports/needs/2024-06-01.csv", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := s.Open(ctx, "reports/needs/2024-06-01.csv")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(body) != "cage,need\n" || got.Checksum != obj.Checksum || got.Labels["kind"] != "needs" {
		t.Fatalf("unexpected open result %+v %q", got, body)
	}

	stat, err := s.Stat(ctx, "reports/needs/2024-06-01.csv")
	if err != nil || stat.ContentType != "text/csv" || !stat.ModifiedAt.Equal(obj.ModifiedAt) {
		t.Fatalf("unexpected stat %+v %v", stat, err)
	}

	link, err := s.Link(ctx, "reports/needs/2024-06-01.csv", time.Hour)
	if err != nil || !strings.HasPrefix(link, "file://") || !strings.HasSuffix(link, "/reports/needs/2024-06-01.csv") {
		t.Fatalf("unexpected link %q %v", link, err)
	}

	ok, err := s.Remove(ctx, "reports/needs/2024-06-01.csv")
	if err != nil || !ok {
		t.Fatalf("remove: %v %v", ok, err)
	}
	if ok, err := s.Remove(ctx, "reports/needs/2024-06-01.csv"); ok || err != nil {
		t.Fatalf("second remove = %v, %v", ok, err)
	}
	if _, err := s.Stat(ctx, "reports/needs/2024-06-01.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Open(ctx, "reports/needs/2024-06-01.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on open, got %v", err)
	}
}

func TestStoreListFiltersByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)
	for _, key := range []string{"reports/litters/b.csv", "reports/census/a.csv", "reports/litters/a.csv"} {
		if _, err := s.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	list, err := s.List(ctx, "reports/litters/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "reports/litters/a.csv" || list[1].Key != "reports/litters/b.csv" {
		t.Fatalf("unexpected list %+v", list)
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected three objects, got %+v %v", all, err)
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)
	for _, key := range []string{"", "/abs", "a/../../b", "report.csv.meta"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}

func TestStoreCorruptSidecar(t *testing.T) {
	ctx := context.Background()
	s := newTempStore(t)
	if _, err := s.Put(ctx, "a.csv", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Root(), "a.csv.meta"), []byte("{"), 0o644); err != nil {
		t.Fatalf("corrupt sidecar: %v", err)
	}
	if _, err := s.Stat(ctx, "a.csv"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := s.List(ctx, ""); err == nil {
		t.Fatalf("expected list to surface decode error")
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Root() != DefaultRoot || s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected store %q %q", s.Root(), s.Driver())
	}
	if _, err := os.Stat(filepath.Join(dir, "reportdata")); err != nil {
		t.Fatalf("expected default root to be created: %v", err)
	}
}
