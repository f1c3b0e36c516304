package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/restprobe/internal/domain"
)

func TestBoltStoreMarksAndExpiresAlerts(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		AlertTTL:        1 * time.Second,
		CleanupInterval: 1 * time.Second,
	}

	storeRaw, err := openBolt(filepath.Join(dir, "probe.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	seen, err := store.SeenFailure("users|500")
	if err != nil || seen {
		t.Fatalf("expected unseen failure, seen=%v err=%v", seen, err)
	}

	if err := store.MarkFailure("users|500"); err != nil {
		t.Fatalf("MarkFailure: %v", err)
	}

	seen, err = store.SeenFailure("users|500")
	if err != nil || !seen {
		t.Fatalf("expected failure marked as seen, got seen=%v err=%v", seen, err)
	}

	// Fast-forward cleanup cadence and trigger expiry.
	store.lastCleanup.Store(time.Now().Add(-2 * time.Second).Unix())
	time.Sleep(1100 * time.Millisecond)

	seen, err = store.SeenFailure("users|500")
	if err != nil {
		t.Fatalf("SeenFailure after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire and be removed")
	}
}

func TestBoltStoreHistoryNewestFirst(t *testing.T) {
	store, err := NewStore("bbolt", filepath.Join(t.TempDir(), "nested", "probe.db"), Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	base := time.Now().Add(-time.Minute)
	for i, id := range []string{"first", "second", "third"} {
		rec := domain.FailureRecord{CheckID: id, StatusCode: 500, ObservedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.RecordFailure(rec); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	recs, err := store.History(2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 || recs[0].CheckID != "third" || recs[1].CheckID != "second" {
		t.Fatalf("unexpected history %#v", recs)
	}

	all, err := store.History(0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 records, got %d err=%v", len(all), err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkFailure("x"); err != nil {
		t.Fatalf("noop store MarkFailure: %v", err)
	}
	if seen, _ := store.SeenFailure("x"); seen {
		t.Fatalf("noop store should never report seen")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
