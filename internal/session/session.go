// Package session owns the lifecycle of live attendance sessions: a teacher
// opens a time-bounded broadcast, students discover it within their
// institute, and at most one session per teacher is ever active.
package session

import "time"

// Session is one live attendance window. The ID doubles as the scannable
// QR payload.
type Session struct {
	ID          string    `json:"sessionId"`
	TeacherID   string    `json:"teacherId"`
	InstituteID string    `json:"instituteId"`
	TeacherName string    `json:"teacherName"`
	Subject     string    `json:"subject"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}
