package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"acadex/internal/auth"
	"acadex/internal/queue"
)

var (
	// ErrEmailTaken means a profile already exists for the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrValidation wraps missing/invalid form fields.
	ErrValidation = errors.New("validation failed")
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, u User) error
	GetByUID(ctx context.Context, uid string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByInstitute(ctx context.Context, instituteID string) ([]User, error)
	CreateInstitute(ctx context.Context, inst Institute) error
	SaveRefreshToken(ctx context.Context, uid, token string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, token string) error
	RefreshTokenValid(ctx context.Context, token string) (bool, error)
}

// Service owns account lifecycle: signup, login, privileged provisioning.
type Service struct {
	store Store
	q     queue.Queue
}

// NewService creates a service.
func NewService(store Store, q queue.Queue) *Service {
	return &Service{store: store, q: q}
}

// ProvisionInput is the /createUser request: an admin creating an account
// on someone's behalf. The new user sets their real password via the
// emailed setup link; the temporary one just satisfies the auth backend.
type ProvisionInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        Role
	InstituteID string
	// Role-specific extras.
	RollNo        string
	Subject       string
	Qualification string
}

// Provision creates a profile with a hashed credential and queues a
// password-setup invite. Super-admin accounts cannot be provisioned here.
func (s *Service) Provision(ctx context.Context, in ProvisionInput) (User, error) {
	switch in.Role {
	case RoleStudent, RoleTeacher, RoleInstituteAdmin:
	default:
		return User{}, fmt.Errorf("%w: role %q cannot be provisioned", ErrValidation, in.Role)
	}
	if in.Email == "" || in.FirstName == "" {
		return User{}, fmt.Errorf("%w: email and first name required", ErrValidation)
	}
	if in.InstituteID == "" {
		return User{}, fmt.Errorf("%w: institute id required", ErrValidation)
	}
	if in.Role == RoleStudent && in.RollNo == "" {
		return User{}, fmt.Errorf("%w: roll number required for students", ErrValidation)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	u := User{
		UID:           uuid.NewString(),
		Email:         in.Email,
		PasswordHash:  hash,
		Role:          in.Role,
		InstituteID:   in.InstituteID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		RollNo:        in.RollNo,
		Subject:       in.Subject,
		Qualification: in.Qualification,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}

	s.SendInvite(ctx, u.Email)
	return u, nil
}

// SignupInput is the public self-registration form.
type SignupInput struct {
	Email         string
	Password      string
	Role          Role
	FirstName     string
	LastName      string
	RollNo        string
	Subject       string
	Qualification string
	InstituteName string
	InstituteID   string
}

// Signup registers a caller-chosen role. Institute-admin signups also
// create the tenant and become its admin.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	if in.Email == "" || in.Password == "" {
		return User{}, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	u := User{
		UID:       uuid.NewString(),
		Email:     in.Email,
		Role:      in.Role,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: time.Now().UTC(),
	}

	switch in.Role {
	case RoleStudent:
		u.RollNo = in.RollNo
		u.InstituteID = in.InstituteID
	case RoleTeacher:
		u.Subject = in.Subject
		u.Qualification = in.Qualification
		u.InstituteID = in.InstituteID
	case RoleInstituteAdmin:
		if in.InstituteName == "" || in.FirstName == "" {
			return User{}, fmt.Errorf("%w: name and institute name required", ErrValidation)
		}
	default:
		return User{}, fmt.Errorf("%w: unknown role", ErrValidation)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	u.PasswordHash = hash

	if in.Role == RoleInstituteAdmin {
		inst := Institute{ID: uuid.NewString(), Name: in.InstituteName, AdminUID: u.UID}
		if err := s.store.CreateInstitute(ctx, inst); err != nil {
			return User{}, err
		}
		u.InstituteID = inst.ID
	}

	if err := s.store.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login verifies credentials and returns the profile.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if u == nil || !auth.CheckPassword(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// GetByUID returns a profile or nil.
func (s *Service) GetByUID(ctx context.Context, uid string) (*User, error) {
	return s.store.GetByUID(ctx, uid)
}

// ListByInstitute returns one tenant's profiles.
func (s *Service) ListByInstitute(ctx context.Context, instituteID string) ([]User, error) {
	return s.store.ListByInstitute(ctx, instituteID)
}

// CreateInstitute inserts a tenant record.
func (s *Service) CreateInstitute(ctx context.Context, inst Institute) error {
	return s.store.CreateInstitute(ctx, inst)
}

// SendInvite queues a password-setup email. Delivery is best-effort; the
// account exists either way and the invite can be re-sent.
func (s *Service) SendInvite(ctx context.Context, email string) {
	if s.q == nil {
		return
	}
	if err := s.q.Publish(ctx, queue.Message{Type: queue.TypeInvite, Body: []byte(email)}); err != nil {
		log.Printf("users: invite enqueue for %s failed: %v", email, err)
	}
}

// SaveRefreshToken stores a refresh token for later rotation checks.
func (s *Service) SaveRefreshToken(ctx context.Context, uid, token string, expiresAt time.Time) error {
	return s.store.SaveRefreshToken(ctx, uid, token, expiresAt)
}

// RotateRefreshToken validates and revokes the presented token. Returns
// false when the token is unknown, expired or already used.
func (s *Service) RotateRefreshToken(ctx context.Context, token string) (bool, error) {
	ok, err := s.store.RefreshTokenValid(ctx, token)
	if err != nil || !ok {
		return false, err
	}
	if err := s.store.RevokeRefreshToken(ctx, token); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureSuperAdmin creates the seed super-admin account if it is missing.
func (s *Service) EnsureSuperAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, User{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         RoleSuperAdmin,
		FirstName:    "Super",
		LastName:     "Admin",
		CreatedAt:    time.Now().UTC(),
	})
}
