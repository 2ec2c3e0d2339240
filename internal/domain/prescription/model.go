package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription records what a doctor prescribed during one appointment.
// Each appointment carries at most one prescription; saving it completes
// the appointment.
type Prescription struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AppointmentID uuid.UUID `json:"appointment_id" db:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id" db:"doctor_id"`
	PatientName   string    `json:"patient_name" db:"patient_name"`
	Medication    string    `json:"medication" db:"medication"`
	Dosage        string    `json:"dosage" db:"dosage"`
	DoctorNotes   *string   `json:"doctor_notes,omitempty" db:"doctor_notes"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
