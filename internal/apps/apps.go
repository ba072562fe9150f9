// Package apps handles institute applications: the public intake form, the
// super-admin review queue, and the approval flow that turns an application
// into a tenant with a provisioned admin account.
package apps

import "time"

// Application statuses. Intended use is one-directional
// (pending → approved|denied); decided applications are never re-decided.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// Application is one institute's request to join the platform.
type Application struct {
	ID            string    `json:"id"`
	InstituteName string    `json:"instituteName"`
	ContactName   string    `json:"contactName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Message       string    `json:"message,omitempty"`
	Status        string    `json:"status"`
	AdminUID      string    `json:"adminUid,omitempty"`
	SubmittedAt   time.Time `json:"submittedAt"`
}
