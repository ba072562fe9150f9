// Package attendance is the ledger of confirmed presence: exactly one
// record per (session, student) pair, keyed by a deterministic composite
// id so re-scans overwrite instead of duplicating.
package attendance

import (
	"sort"
	"strconv"
	"time"
)

// Record is one student's confirmed presence in one session. Student
// display fields are denormalized at write time.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	StudentID string    `json:"studentId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"studentEmail"`
	RollNo    string    `json:"rollNo"`
	Status    string    `json:"status"`
	MarkedAt  time.Time `json:"timestamp"`
}

// StatusPresent is the only status this version records.
const StatusPresent = "Present"

// RecordID is the composite identity guaranteeing at most one record per
// (session, student) pair.
func RecordID(sessionID, studentID string) string {
	return sessionID + "_" + studentID
}

// SortByRoll orders records by numeric roll number ascending. Roll numbers
// that don't parse as integers sort as 0, i.e. first; a bad roll number can
// never fail the projection.
func SortByRoll(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return rollValue(records[i].RollNo) < rollValue(records[j].RollNo)
	})
}

func rollValue(rollNo string) int {
	n, err := strconv.Atoi(rollNo)
	if err != nil {
		return 0
	}
	return n
}
