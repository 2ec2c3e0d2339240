package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// Status is an appointment's lifecycle state. Scheduled is the only
// initial state; completed and cancelled are terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	DoctorID  uuid.UUID `json:"doctor_id" db:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DoctorDayItem is one row of a doctor's day view, joined with the
// patient's name.
type DoctorDayItem struct {
	Appointment
	PatientName string `json:"patient_name" db:"patient_name"`
}

// PatientItem is one row of a patient's appointment list, joined with
// the doctor's name and specialty.
type PatientItem struct {
	Appointment
	DoctorName      string `json:"doctor_name" db:"doctor_name"`
	DoctorSpecialty string `json:"doctor_specialty" db:"doctor_specialty"`
}
