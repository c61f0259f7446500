// Package models contains the rows persisted by the storage package.
package models

import "time"

// LockerEvent is one journal row. State is empty for password changes;
// passcodes are never stored.
type LockerEvent struct {
	ID         string    `db:"id" json:"id"`
	LockerID   int       `db:"locker_id" json:"locker_id"`
	Kind       string    `db:"kind" json:"kind"`
	State      string    `db:"state" json:"state,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}
