package apps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"acadex/internal/users"
	"acadex/internal/watch"
)

var (
	// ErrMissingFields means a required intake field was empty.
	ErrMissingFields = errors.New("institute name, contact person and email are required")
	// ErrNotFound means no application matched.
	ErrNotFound = errors.New("application not found")
	// ErrAlreadyDecided means the application left the pending state earlier.
	// Decisions are one-way; a denied application cannot be approved later.
	ErrAlreadyDecided = errors.New("application already decided")
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, a Application) (Application, error)
	List(ctx context.Context) ([]Application, error)
	GetByID(ctx context.Context, id string) (*Application, error)
	LatestByEmail(ctx context.Context, email string) (*Application, error)
	Decide(ctx context.Context, id, status, adminUID string) (bool, error)
}

// Provisioner creates the institute-admin account on approval.
type Provisioner interface {
	Provision(ctx context.Context, in users.ProvisionInput) (users.User, error)
	CreateInstitute(ctx context.Context, inst users.Institute) error
	SendInvite(ctx context.Context, email string)
}

// Service reviews institute applications.
type Service struct {
	store       Store
	provisioner Provisioner
	hub         *watch.Hub
}

// NewService creates a service.
func NewService(store Store, provisioner Provisioner, hub *watch.Hub) *Service {
	return &Service{store: store, provisioner: provisioner, hub: hub}
}

// SubmitInput is the public application form.
type SubmitInput struct {
	InstituteName string
	ContactName   string
	Email         string
	Phone         string
	Message       string
}

// Submit files a new pending application.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Application, error) {
	if in.InstituteName == "" || in.ContactName == "" || in.Email == "" {
		return Application{}, ErrMissingFields
	}
	a, err := s.store.Create(ctx, Application{
		ID:            uuid.NewString(),
		InstituteName: in.InstituteName,
		ContactName:   in.ContactName,
		Email:         in.Email,
		Phone:         in.Phone,
		Message:       in.Message,
		Status:        StatusPending,
	})
	if err != nil {
		return Application{}, err
	}
	s.hub.Notify(ctx, watch.TopicApplications())
	return a, nil
}

// List returns all applications for the super-admin review queue.
func (s *Service) List(ctx context.Context) ([]Application, error) {
	return s.store.List(ctx)
}

// StatusByEmail returns the latest application status for an email.
func (s *Service) StatusByEmail(ctx context.Context, email string) (Application, error) {
	a, err := s.store.LatestByEmail(ctx, email)
	if err != nil {
		return Application{}, err
	}
	if a == nil {
		return Application{}, ErrNotFound
	}
	return *a, nil
}

// Approve creates the tenant, provisions its admin account (who sets their
// real password via the emailed invite) and marks the application approved.
func (s *Service) Approve(ctx context.Context, id string) (Application, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if a == nil {
		return Application{}, ErrNotFound
	}
	if a.Status != StatusPending {
		return Application{}, ErrAlreadyDecided
	}

	inst := users.Institute{ID: a.ID, Name: a.InstituteName}
	if err := s.provisioner.CreateInstitute(ctx, inst); err != nil {
		return Application{}, fmt.Errorf("create institute: %w", err)
	}

	admin, err := s.provisioner.Provision(ctx, users.ProvisionInput{
		Email:       a.Email,
		Password:    uuid.NewString(), // throwaway; replaced via setup link
		FirstName:   a.ContactName,
		Role:        users.RoleInstituteAdmin,
		InstituteID: inst.ID,
	})
	if err != nil {
		return Application{}, fmt.Errorf("provision admin: %w", err)
	}

	ok, err := s.store.Decide(ctx, id, StatusApproved, admin.UID)
	if err != nil {
		return Application{}, err
	}
	if !ok {
		return Application{}, ErrAlreadyDecided
	}

	a.Status = StatusApproved
	a.AdminUID = admin.UID
	s.hub.Notify(ctx, watch.TopicApplications())
	return *a, nil
}

// Deny marks a pending application denied.
func (s *Service) Deny(ctx context.Context, id string) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	ok, err := s.store.Decide(ctx, id, StatusDenied, "")
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyDecided
	}
	s.hub.Notify(ctx, watch.TopicApplications())
	return nil
}

// ResendInvite queues another password-setup email for an approved
// application's admin.
func (s *Service) ResendInvite(ctx context.Context, id string) error {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrNotFound
	}
	if a.Status != StatusApproved {
		return fmt.Errorf("application %s is not approved", id)
	}
	s.provisioner.SendInvite(ctx, a.Email)
	return nil
}

// WatchAll is the super-admin live queue: the full application list is
// re-delivered after every submit or decision.
func (s *Service) WatchAll(ctx context.Context) (<-chan []Application, func()) {
	notify, unsubscribe := s.hub.Subscribe(watch.TopicApplications())
	out := make(chan []Application, 1)
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
			list, err := s.store.List(ctx)
			if err != nil {
				return
			}
			select {
			case out <- list:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- list:
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
