// Package tasks manages free-period tasks: teachers post work, students
// browse it and tick off what they finished.
package tasks

import "time"

// Task is one posted assignment.
type Task struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacherId"`
	TeacherName string    `json:"teacherName,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
