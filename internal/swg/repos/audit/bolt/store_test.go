package bolt

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/haukened/swgd/internal/swg/domain"
)

func newTestLog(t *testing.T) *boltLog {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l.(*boltLog)
}

func TestRecordAndRecent(t *testing.T) {
	l := newTestLog(t)
	base := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	events := []domain.AuditEvent{
		{Time: base, Domain: "example.com", Category: domain.CategoryNews, Action: domain.ActionAllow, Cached: true},
		{Time: base.Add(time.Second), Domain: "instagram.com", Category: domain.CategorySocialMedia, Action: domain.ActionBlock},
		{Time: base.Add(2 * time.Second), Domain: "github.com", Category: domain.CategorySoftwareDev, Action: domain.ActionAllow, Latency: 120 * time.Millisecond},
	}
	for _, e := range events {
		if err := l.Record(e); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := l.Recent(2)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Domain != "github.com" {
		t.Errorf("expected newest first, got %q", got[0].Domain)
	}
	if got[0].Latency != 120*time.Millisecond {
		t.Errorf("expected latency round trip, got %v", got[0].Latency)
	}
	if got[1].Domain != "instagram.com" || got[1].Action != domain.ActionBlock {
		t.Errorf("unexpected second event: %+v", got[1])
	}
}

func TestRecent_EmptyDatabase(t *testing.T) {
	l := newTestLog(t)
	got, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no events, got %d", len(got))
	}
}

func TestRecord_SameInstantDifferentDomains(t *testing.T) {
	l := newTestLog(t)
	at := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

	for _, name := range []string{"a.com", "b.com"} {
		if err := l.Record(domain.AuditEvent{Time: at, Domain: name, Category: domain.CategoryUnknown, Action: domain.ActionAllow}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := l.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("events at the same instant must not collide, got %d", len(got))
	}
}
