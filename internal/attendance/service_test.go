package attendance

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"acadex/internal/watch"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]Record)}
}

func (f *fakeStore) Upsert(_ context.Context, rec Record) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.records[rec.ID]; ok {
		rec.MarkedAt = existing.MarkedAt
	} else if rec.MarkedAt.IsZero() {
		rec.MarkedAt = time.Now().UTC()
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStore) ListBySession(_ context.Context, sessionID string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Record
	for _, rec := range f.records {
		if rec.SessionID == sessionID {
			res = append(res, rec)
		}
	}
	return res, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []Record
	for _, rec := range f.records {
		res = append(res, rec)
	}
	return res, nil
}

func TestRecordID(t *testing.T) {
	if got := RecordID("sess-1", "stud-9"); got != "sess-1_stud-9" {
		t.Errorf("RecordID = %q", got)
	}
	// Deterministic: same pair, same id.
	if RecordID("a", "b") != RecordID("a", "b") {
		t.Error("RecordID not deterministic")
	}
}

func TestSortByRoll(t *testing.T) {
	records := []Record{
		{StudentID: "a", RollNo: "21"},
		{StudentID: "b", RollNo: "3"},
		{StudentID: "c", RollNo: ""},     // missing roll sorts as 0
		{StudentID: "d", RollNo: "x-12"}, // non-numeric roll sorts as 0
		{StudentID: "e", RollNo: "101"},
		{StudentID: "f", RollNo: "3"}, // duplicate roll, stable after b
	}
	SortByRoll(records)

	wantOrder := []string{"c", "d", "b", "f", "a", "e"}
	for i, want := range wantOrder {
		if records[i].StudentID != want {
			t.Fatalf("position %d = %s, want %s (full: %+v)", i, records[i].StudentID, want, records)
		}
	}

	// Property: numeric roll values are non-decreasing.
	for i := 1; i < len(records); i++ {
		if rollValue(records[i-1].RollNo) > rollValue(records[i].RollNo) {
			t.Errorf("ordering violated at %d: %q > %q", i, records[i-1].RollNo, records[i].RollNo)
		}
	}
}

func TestListBySessionOrdered(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, watch.NewHub(nil))

	for _, roll := range []string{"12", "2", "abc", "7"} {
		rec := Record{
			ID:        RecordID("sess-1", "stud-"+roll),
			SessionID: "sess-1",
			StudentID: "stud-" + roll,
			RollNo:    roll,
			Status:    StatusPresent,
		}
		if _, err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	records, err := svc.ListBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	gotRolls := make([]string, len(records))
	for i, rec := range records {
		gotRolls[i] = rec.RollNo
	}
	want := []string{"abc", "2", "7", "12"}
	for i := range want {
		if gotRolls[i] != want[i] {
			t.Fatalf("order = %v, want %v", gotRolls, want)
		}
	}
}

func TestWatchSessionDeliversSnapshots(t *testing.T) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()
	store := newFakeStore()
	hub := watch.NewHub(nil)
	svc := NewService(store, hub)

	snapshots, cancel := svc.WatchSession(ctx, "sess-1")
	defer cancel()

	select {
	case snap := <-snapshots:
		if len(snap) != 0 {
			t.Fatalf("initial snapshot has %d records", len(snap))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	rec := Record{ID: RecordID("sess-1", "s1"), SessionID: "sess-1", StudentID: "s1", RollNo: "4", Status: StatusPresent}
	if _, err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	hub.Notify(ctx, watch.TopicAttendance("sess-1"))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-snapshots:
			if len(snap) == 1 && snap[0].StudentID == "s1" {
				return
			}
		case <-deadline:
			t.Fatal("scan never surfaced on the live list")
		}
	}
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, watch.NewHub(nil))

	marked := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	for _, rec := range []Record{
		{ID: "sess-1_a", SessionID: "sess-1", StudentID: "a", FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", RollNo: "2", Status: StatusPresent, MarkedAt: marked},
		{ID: "sess-1_b", SessionID: "sess-1", StudentID: "b", FirstName: "Vikram", LastName: "Shah", Email: "vikram@example.com", RollNo: "10", Status: StatusPresent, MarkedAt: marked},
	} {
		if _, err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	var buf strings.Builder
	if err := svc.ExportCSV(ctx, &buf, "sess-1"); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("%d lines, want header + 2 rows:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Roll No.,First Name,Last Name,Email,Marked At" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2,Asha") || !strings.HasPrefix(lines[2], "10,Vikram") {
		t.Errorf("rows out of roll order:\n%s", buf.String())
	}
}
