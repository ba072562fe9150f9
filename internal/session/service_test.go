package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"acadex/internal/watch"
)

// fakeStore mimics the transactional semantics of the Postgres repo: the
// deactivate-and-insert step happens under one lock.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	clock    time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]Session), clock: time.Now()}
}

func (f *fakeStore) DeactivateAndCreate(_ context.Context, s Session) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.sessions {
		if existing.TeacherID == s.TeacherID && existing.IsActive {
			existing.IsActive = false
			f.sessions[id] = existing
		}
	}
	f.clock = f.clock.Add(time.Millisecond)
	s.IsActive = true
	s.CreatedAt = f.clock
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) SetInactive(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok && s.IsActive {
		s.IsActive = false
		f.sessions[id] = s
	}
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) ActiveByTeacher(_ context.Context, teacherID string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *Session
	for _, s := range f.sessions {
		if s.TeacherID == teacherID && s.IsActive {
			cp := s
			if newest == nil || cp.CreatedAt.After(newest.CreatedAt) {
				newest = &cp
			}
		}
	}
	return newest, nil
}

func (f *fakeStore) ActiveByInstitute(_ context.Context, instituteID string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *Session
	for _, s := range f.sessions {
		if s.InstituteID == instituteID && s.IsActive {
			cp := s
			if newest == nil || cp.CreatedAt.After(newest.CreatedAt) {
				newest = &cp
			}
		}
	}
	return newest, nil
}

func (f *fakeStore) activeCountForTeacher(teacherID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.TeacherID == teacherID && s.IsActive {
			n++
		}
	}
	return n
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, watch.NewHub(nil)), store
}

func TestStartEnforcesExclusivity(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	in := StartInput{TeacherID: "t1", InstituteID: "inst-1", TeacherName: "Jane Doe", Subject: "CS"}

	var last Session
	for i := 0; i < 5; i++ {
		s, err := svc.Start(ctx, in)
		if err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		last = s
		if got := store.activeCountForTeacher("t1"); got != 1 {
			t.Fatalf("after Start #%d: %d active sessions, want 1", i, got)
		}
	}

	active, err := svc.ActiveForTeacher(ctx, "t1")
	if err != nil {
		t.Fatalf("ActiveForTeacher: %v", err)
	}
	if active == nil || active.ID != last.ID {
		t.Errorf("active = %+v, want the most recent session %s", active, last.ID)
	}
}

func TestConcurrentStartsKeepInvariant(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	in := StartInput{TeacherID: "t1", InstituteID: "inst-1", Subject: "CS"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Start(ctx, in); err != nil {
				t.Errorf("Start: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.activeCountForTeacher("t1"); got != 1 {
		t.Errorf("%d active sessions after concurrent starts, want 1", got)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	s, err := svc.Start(ctx, StartInput{TeacherID: "t1", InstituteID: "inst-1", Subject: "CS"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.End(ctx, s.ID); err != nil {
			t.Fatalf("End #%d: %v", i, err)
		}
	}
	// Ending a session that never existed is also a no-op.
	if err := svc.End(ctx, "no-such-session"); err != nil {
		t.Errorf("End unknown session: %v", err)
	}

	active, _ := svc.ActiveForTeacher(ctx, "t1")
	if active != nil {
		t.Errorf("session still active after End: %+v", active)
	}
}

func TestStartDefaultsSubject(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	s, err := svc.Start(ctx, StartInput{TeacherID: "t1", InstituteID: "inst-1"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Subject != "Class" {
		t.Errorf("subject = %q, want default", s.Subject)
	}
}

func TestWatchActiveForInstitute(t *testing.T) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()
	svc, _ := newTestService()

	snapshots, cancel := svc.WatchActiveForInstitute(ctx, "inst-1")
	defer cancel()

	// Initial snapshot: no active session.
	select {
	case snap := <-snapshots:
		if snap != nil {
			t.Fatalf("initial snapshot = %+v, want nil", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	s, err := svc.Start(ctx, StartInput{TeacherID: "t1", InstituteID: "inst-1", Subject: "CS"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor := func(want func(*Session) bool, desc string) {
		deadline := time.After(2 * time.Second)
		for {
			select {
			case snap := <-snapshots:
				if want(snap) {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %s", desc)
			}
		}
	}

	waitFor(func(snap *Session) bool { return snap != nil && snap.ID == s.ID }, "session start snapshot")

	if err := svc.End(ctx, s.ID); err != nil {
		t.Fatalf("End: %v", err)
	}
	waitFor(func(snap *Session) bool { return snap == nil }, "session end snapshot")
}

func TestWatchIsTenantScoped(t *testing.T) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCtx()
	svc, _ := newTestService()

	snapshots, cancel := svc.WatchActiveForInstitute(ctx, "inst-b")
	defer cancel()
	<-snapshots // initial nil snapshot

	// A session in tenant A must never surface on tenant B's stream.
	if _, err := svc.Start(ctx, StartInput{TeacherID: "tA", InstituteID: "inst-a", Subject: "CS"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case snap := <-snapshots:
		t.Errorf("tenant B observed %+v from tenant A", snap)
	case <-time.After(200 * time.Millisecond):
	}
}
