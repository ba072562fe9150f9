package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"acadex/internal/metrics"
	"acadex/internal/watch"
)

// Store is the persistence the service needs. DeactivateAndCreate must be
// atomic across the deactivate and insert steps.
type Store interface {
	DeactivateAndCreate(ctx context.Context, s Session) (Session, error)
	SetInactive(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Session, error)
	ActiveByTeacher(ctx context.Context, teacherID string) (*Session, error)
	ActiveByInstitute(ctx context.Context, instituteID string) (*Session, error)
}

// Service manages session lifecycle and exclusivity.
type Service struct {
	store Store
	hub   *watch.Hub
}

// NewService creates a service.
func NewService(store Store, hub *watch.Hub) *Service {
	return &Service{store: store, hub: hub}
}

// StartInput carries the teacher identity and denormalized display fields.
type StartInput struct {
	TeacherID   string
	InstituteID string
	TeacherName string
	Subject     string
}

// Start opens a new session, retiring any prior active session owned by the
// same teacher in the same atomic step. Concurrent starts from one teacher
// resolve to last-write-wins; the exclusivity invariant holds throughout.
func (s *Service) Start(ctx context.Context, in StartInput) (Session, error) {
	if in.TeacherID == "" || in.InstituteID == "" {
		return Session{}, errors.New("teacher and institute required")
	}
	if in.Subject == "" {
		in.Subject = "Class"
	}

	sess, err := s.store.DeactivateAndCreate(ctx, Session{
		ID:          uuid.NewString(),
		TeacherID:   in.TeacherID,
		InstituteID: in.InstituteID,
		TeacherName: in.TeacherName,
		Subject:     in.Subject,
	})
	if err != nil {
		return Session{}, err
	}

	metrics.SessionsStarted.Inc()
	s.hub.Notify(ctx, watch.TopicSessions(in.InstituteID))
	return sess, nil
}

// End deactivates a session. Ending an already-inactive or unknown session
// is a no-op, not an error.
func (s *Service) End(ctx context.Context, sessionID string) error {
	sess, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil || !sess.IsActive {
		return nil
	}
	if err := s.store.SetInactive(ctx, sessionID); err != nil {
		return err
	}
	metrics.SessionsEnded.Inc()
	s.hub.Notify(ctx, watch.TopicSessions(sess.InstituteID))
	return nil
}

// GetByID returns a session or nil.
func (s *Service) GetByID(ctx context.Context, id string) (*Session, error) {
	return s.store.GetByID(ctx, id)
}

// ActiveForTeacher is a one-shot read of the teacher's active session.
func (s *Service) ActiveForTeacher(ctx context.Context, teacherID string) (*Session, error) {
	return s.store.ActiveByTeacher(ctx, teacherID)
}

// ActiveForInstitute is a one-shot read of the tenant's active session.
func (s *Service) ActiveForInstitute(ctx context.Context, instituteID string) (*Session, error) {
	return s.store.ActiveByInstitute(ctx, instituteID)
}

// WatchActiveForInstitute is the student discovery stream: it emits the
// current active session (or nil) immediately, then a fresh snapshot after
// every change within the tenant. Intermediate states may be skipped; the
// final state is always delivered. The cancel func must be called when the
// consumer goes away and is safe to call more than once.
func (s *Service) WatchActiveForInstitute(ctx context.Context, instituteID string) (<-chan *Session, func()) {
	notify, unsubscribe := s.hub.Subscribe(watch.TopicSessions(instituteID))
	out := make(chan *Session, 1)
	done := make(chan struct{})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			unsubscribe()
			close(done)
		})
	}

	go func() {
		defer close(out)
		push := func() {
			sess, err := s.store.ActiveByInstitute(ctx, instituteID)
			if err != nil {
				return // transient read failure; next notification retries
			}
			// Latest snapshot wins: drop a stale pending value if the
			// consumer hasn't caught up.
			select {
			case out <- sess:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- sess:
				default:
				}
			}
		}

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-notify:
				push()
			}
		}
	}()

	return out, cancel
}
