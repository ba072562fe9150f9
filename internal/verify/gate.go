// Package verify is the trusted server-side gate in front of the attendance
// ledger. Session validity and location checks run here with the server's
// authority; nothing the student client sends is taken at face value.
package verify

import (
	"context"
	"errors"
	"log"

	"acadex/internal/attendance"
	"acadex/internal/geo"
	"acadex/internal/metrics"
	"acadex/internal/queue"
	"acadex/internal/session"
	"acadex/internal/users"
	"acadex/internal/watch"
)

var (
	// ErrSessionNotFound means no session exists for the scanned token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInactive means the session exists but is closed to scans.
	ErrSessionInactive = errors.New("session is not active")
	// ErrLocationRejected means the location policy is on and the scan came
	// without coordinates or from outside the allowed radius.
	ErrLocationRejected = errors.New("location rejected")
	// ErrProfileNotFound means the scanning student has no profile.
	ErrProfileNotFound = errors.New("student profile not found")
)

// SessionReader resolves a scanned token to a session.
type SessionReader interface {
	GetByID(ctx context.Context, id string) (*session.Session, error)
}

// ProfileReader loads the student fields denormalized onto the record.
type ProfileReader interface {
	GetByUID(ctx context.Context, uid string) (*users.User, error)
}

// Ledger is the write side of the attendance store.
type Ledger interface {
	Upsert(ctx context.Context, rec attendance.Record) (attendance.Record, error)
}

// Gate validates scan attempts and is the only writer of the ledger.
type Gate struct {
	sessions SessionReader
	profiles ProfileReader
	ledger   Ledger
	policy   geo.Policy
	hub      *watch.Hub
	q        queue.Queue
}

// NewGate creates a gate. q may be nil when no worker is wired.
func NewGate(sessions SessionReader, profiles ProfileReader, ledger Ledger, policy geo.Policy, hub *watch.Hub, q queue.Queue) *Gate {
	return &Gate{sessions: sessions, profiles: profiles, ledger: ledger, policy: policy, hub: hub, q: q}
}

// VerifyAndRecord validates a scan and records attendance exactly once.
// Repeat calls for the same (session, student) pair succeed again without
// creating a second record.
func (g *Gate) VerifyAndRecord(ctx context.Context, sessionID, studentID string, loc *geo.Point) (attendance.Record, error) {
	sess, err := g.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return attendance.Record{}, err
	}
	if sess == nil {
		metrics.ScansRejected.WithLabelValues("not_found").Inc()
		return attendance.Record{}, ErrSessionNotFound
	}
	if !sess.IsActive {
		metrics.ScansRejected.WithLabelValues("inactive").Inc()
		return attendance.Record{}, ErrSessionInactive
	}
	if !g.policy.Allows(loc) {
		metrics.ScansRejected.WithLabelValues("location").Inc()
		return attendance.Record{}, ErrLocationRejected
	}

	student, err := g.profiles.GetByUID(ctx, studentID)
	if err != nil {
		return attendance.Record{}, err
	}
	if student == nil {
		metrics.ScansRejected.WithLabelValues("no_profile").Inc()
		return attendance.Record{}, ErrProfileNotFound
	}

	rec, err := g.ledger.Upsert(ctx, attendance.Record{
		ID:        attendance.RecordID(sessionID, studentID),
		SessionID: sessionID,
		StudentID: studentID,
		FirstName: student.FirstName,
		LastName:  student.LastName,
		Email:     student.Email,
		RollNo:    student.RollNo,
		Status:    attendance.StatusPresent,
	})
	if err != nil {
		return attendance.Record{}, err
	}

	metrics.ScansAccepted.Inc()
	g.hub.Notify(ctx, watch.TopicAttendance(sessionID))
	if g.q != nil {
		if err := g.q.Publish(ctx, queue.Message{Type: queue.TypeAttendance, Body: []byte(rec.ID)}); err != nil {
			log.Printf("verify: attendance event enqueue failed: %v", err)
		}
	}
	return rec, nil
}
