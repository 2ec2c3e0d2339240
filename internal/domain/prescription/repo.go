package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no prescription exists for the appointment.
	ErrNotFound = errors.New("prescription not found")
	// ErrDuplicate means the appointment already has a prescription.
	ErrDuplicate = errors.New("prescription already exists for this appointment")
)

type Repository interface {
	// Create inserts the prescription; ErrDuplicate when the
	// appointment already has one.
	Create(ctx context.Context, p *Prescription) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
