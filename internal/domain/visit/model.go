package visit

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a visit. Transitions are only legal along
// the edges in the transition table below and are always applied as a
// conditional update on the previous status.
type Status string

const (
	StatusPending          Status = "pending"
	StatusConfirmed        Status = "confirmed"
	StatusWaitingResults   Status = "waiting_results"
	StatusCompleted        Status = "completed"
	StatusPatientCancelled Status = "patient_cancelled"
	StatusDoctorCancelled  Status = "doctor_cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:          true,
	StatusConfirmed:        true,
	StatusWaitingResults:   true,
	StatusCompleted:        true,
	StatusPatientCancelled: true,
	StatusDoctorCancelled:  true,
}

// transitions is the legal edge set. Completion is reachable from every
// non-terminal state because the record finalizer may close a visit that
// never needed lab work.
var transitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusConfirmed:        true,
		StatusCompleted:        true,
		StatusPatientCancelled: true,
		StatusDoctorCancelled:  true,
	},
	StatusConfirmed: {
		StatusWaitingResults:   true,
		StatusCompleted:        true,
		StatusPatientCancelled: true,
		StatusDoctorCancelled:  true,
	},
	StatusWaitingResults: {
		StatusCompleted:        true,
		StatusPatientCancelled: true,
		StatusDoctorCancelled:  true,
	},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return validStatuses[s] }

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusPatientCancelled || s == StatusDoctorCancelled
}

// CanTransition reports whether the edge from -> to is in the table.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// Visit maps to the visits table: one scheduled encounter between a patient
// and a doctor.
type Visit struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ServiceID    *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	ScheduledAt  time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Symptoms     *string    `db:"symptoms" json:"symptoms,omitempty"`
	Status       Status     `db:"status" json:"status"`
	CancelledBy  *string    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	examWindowBefore = 3 * time.Hour
	examWindowAfter  = 15 * time.Minute
)

// ScheduledToday reports whether the visit falls on the same calendar day
// as now, compared in UTC.
func (v *Visit) ScheduledToday(now time.Time) bool {
	sy, sm, sd := v.ScheduledAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return sy == ny && sm == nm && sd == nd
}

// WithinExamWindow reports whether now is inside the actionable window: the
// visit is today and now is between three hours before and fifteen minutes
// after the scheduled time. This is a derived predicate recomputed on every
// call, never stored.
func (v *Visit) WithinExamWindow(now time.Time) bool {
	if !v.ScheduledToday(now) {
		return false
	}
	diff := now.Sub(v.ScheduledAt)
	return diff >= -examWindowBefore && diff <= examWindowAfter
}
