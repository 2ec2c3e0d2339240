package prescription

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AppointmentCompleter transitions a scheduled appointment to completed
// on behalf of the prescribing doctor. The scheduling service implements
// it; its ownership and terminal-state errors pass through unchanged.
type AppointmentCompleter interface {
	MarkPrescribed(ctx context.Context, doctorID, appointmentID uuid.UUID) error
}

type Service struct {
	repo      Repository
	completer AppointmentCompleter

	// runTx makes the insert and the appointment transition atomic.
	// Wired to db.WithTx in main; defaults to a direct call.
	runTx func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(repo Repository, completer AppointmentCompleter, runTx func(ctx context.Context, fn func(ctx context.Context) error) error) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, completer: completer, runTx: runTx}
}

// SaveInput carries the prescription fields a doctor submits.
type SaveInput struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	Medication    string    `json:"medication"`
	Dosage        string    `json:"dosage"`
	DoctorNotes   *string   `json:"doctor_notes,omitempty"`
}

func (in SaveInput) validate() error {
	if in.AppointmentID == uuid.Nil {
		return fmt.Errorf("appointment_id is required")
	}
	if n := len(strings.TrimSpace(in.PatientName)); n < 3 || n > 100 {
		return fmt.Errorf("patient_name must be between 3 and 100 characters")
	}
	if n := len(strings.TrimSpace(in.Medication)); n < 3 || n > 100 {
		return fmt.Errorf("medication must be between 3 and 100 characters")
	}
	if n := len(strings.TrimSpace(in.Dosage)); n < 3 || n > 20 {
		return fmt.Errorf("dosage must be between 3 and 20 characters")
	}
	if in.DoctorNotes != nil && len(*in.DoctorNotes) > 200 {
		return fmt.Errorf("doctor_notes cannot exceed 200 characters")
	}
	return nil
}

// Save stores the prescription and completes its appointment in one
// transaction. A second prescription for the same appointment fails on
// the uniqueness constraint; a failed transition rolls the insert back.
func (s *Service) Save(ctx context.Context, doctorID uuid.UUID, in SaveInput) (*Prescription, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &Prescription{
		AppointmentID: in.AppointmentID,
		DoctorID:      doctorID,
		PatientName:   strings.TrimSpace(in.PatientName),
		Medication:    strings.TrimSpace(in.Medication),
		Dosage:        strings.TrimSpace(in.Dosage),
		DoctorNotes:   in.DoctorNotes,
	}
	err := s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.completer.MarkPrescribed(ctx, doctorID, in.AppointmentID)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByAppointment returns the appointment's prescription, if any.
func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}
