package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")
	// ErrDoctorNotFound means the booking target doctor does not exist.
	ErrDoctorNotFound = errors.New("doctor not found")
	// ErrPastTime means the requested start is not strictly in the future.
	ErrPastTime = errors.New("appointment time must be in the future")
	// ErrSlotUnavailable means the slot is outside the doctor's template
	// or already booked. The storage layer also raises it when a
	// concurrent booking wins the uniqueness race.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrNotOwner means the acting principal does not own the appointment.
	ErrNotOwner = errors.New("appointment belongs to another principal")
	// ErrTerminalState means the appointment is completed or cancelled
	// and cannot transition further.
	ErrTerminalState = errors.New("appointment is in a terminal state")
)

// Repository persists appointments. Status-guarded updates are atomic:
// they succeed only while the row is still scheduled, so two racing
// transitions cannot both apply.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListScheduledByDoctorAndDay returns the doctor's scheduled
	// appointments whose start falls on the given calendar day.
	ListScheduledByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Appointment, error)
	// UpdateStatus transitions id from → to; ErrTerminalState when the
	// row is no longer in the from state.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	// Reschedule moves a still-scheduled appointment to a new start;
	// ErrTerminalState when it left the scheduled state,
	// ErrSlotUnavailable when the new start is taken.
	Reschedule(ctx context.Context, id uuid.UUID, start time.Time) error
	// DeleteByDoctor removes all of a doctor's appointments regardless
	// of state and reports how many went away.
	DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)
	// ListDoctorDay returns the doctor's appointments for a day joined
	// with patient names, ordered by start time.
	ListDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*DoctorDayItem, error)
	// ListByPatient returns all of a patient's appointments joined with
	// doctor names, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientItem, error)
}
