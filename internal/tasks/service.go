package tasks

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrMissingFields means title or description was empty.
	ErrMissingFields = errors.New("title and description are required")
	// ErrNotFound means no task matched (or the caller does not own it).
	ErrNotFound = errors.New("task not found")
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, t Task) (Task, error)
	ListAll(ctx context.Context) ([]Task, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]Task, error)
	Delete(ctx context.Context, id, teacherID string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, taskID, studentID string) error
	CompletedIDs(ctx context.Context, studentID string) ([]string, error)
}

// Service owns the task lifecycle.
type Service struct {
	store Store
}

// NewService creates a service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput is a teacher's new-task form.
type CreateInput struct {
	TeacherID   string
	TeacherName string
	Title       string
	Description string
	Link        string
}

// Create posts a task.
func (s *Service) Create(ctx context.Context, in CreateInput) (Task, error) {
	if in.Title == "" || in.Description == "" {
		return Task{}, ErrMissingFields
	}
	return s.store.Create(ctx, Task{
		ID:          uuid.NewString(),
		TeacherID:   in.TeacherID,
		TeacherName: in.TeacherName,
		Title:       in.Title,
		Description: in.Description,
		Link:        in.Link,
	})
}

// ListAll returns every task for the student browse view.
func (s *Service) ListAll(ctx context.Context) ([]Task, error) {
	return s.store.ListAll(ctx)
}

// ListByTeacher returns the caller's own tasks.
func (s *Service) ListByTeacher(ctx context.Context, teacherID string) ([]Task, error) {
	return s.store.ListByTeacher(ctx, teacherID)
}

// Delete removes a task. Only the creating teacher can delete it; a task
// owned by someone else looks the same as a missing one.
func (s *Service) Delete(ctx context.Context, id, teacherID string) error {
	ok, err := s.store.Delete(ctx, id, teacherID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Complete marks a task finished for a student. Completing twice is fine.
func (s *Service) Complete(ctx context.Context, taskID, studentID string) error {
	ok, err := s.store.Exists(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return s.store.Complete(ctx, taskID, studentID)
}

// CompletedIDs returns the ids a student has finished.
func (s *Service) CompletedIDs(ctx context.Context, studentID string) ([]string, error) {
	return s.store.CompletedIDs(ctx, studentID)
}
