package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/pkg/slot"
)

// DoctorDirectory exposes the one fact about doctors this package needs:
// the ordered availability template, or ErrDoctorNotFound.
type DoctorDirectory interface {
	AvailabilityTemplate(ctx context.Context, doctorID uuid.UUID) ([]string, error)
}

// Service implements availability, booking and the appointment lifecycle.
type Service struct {
	repo    Repository
	doctors DoctorDirectory

	now func() time.Time
}

func NewService(repo Repository, doctors DoctorDirectory) *Service {
	return &Service{repo: repo, doctors: doctors, now: time.Now}
}

// DoctorAvailability returns the doctor's free slots for a day: the
// availability template minus that day's scheduled bookings.
func (s *Service) DoctorAvailability(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	template, err := s.doctors.AvailabilityTemplate(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	booked, err := s.repo.ListScheduledByDoctorAndDay(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	times := make([]time.Time, 0, len(booked))
	for _, a := range booked {
		times = append(times, a.StartTime)
	}
	return FreeSlots(template, times), nil
}

// validateBooking runs the ordered booking checks against a candidate
// start time. exclude, when non-nil, names an appointment whose own
// booking must not count against the candidate (reschedule case).
func (s *Service) validateBooking(ctx context.Context, doctorID uuid.UUID, start time.Time, exclude *uuid.UUID) error {
	template, err := s.doctors.AvailabilityTemplate(ctx, doctorID)
	if err != nil {
		return err
	}
	if !start.After(s.now()) {
		return ErrPastTime
	}

	booked, err := s.repo.ListScheduledByDoctorAndDay(ctx, doctorID, start)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	times := make([]time.Time, 0, len(booked))
	for _, a := range booked {
		if exclude != nil && a.ID == *exclude {
			continue
		}
		times = append(times, a.StartTime)
	}

	want := slot.FromTime(start)
	found := false
	for _, free := range FreeSlots(template, times) {
		if free == want {
			found = true
			break
		}
	}
	if !found {
		return ErrSlotUnavailable
	}

	// Slot labels compare by the minute; also reject any booking whose
	// hour-long window overlaps the candidate's. Two windows [a,a+1h)
	// and [b,b+1h) intersect exactly when the starts are less than an
	// hour apart in either direction.
	for _, t := range times {
		if t.After(start.Add(-time.Hour)) && t.Before(start.Add(time.Hour)) {
			return ErrSlotUnavailable
		}
	}
	return nil
}

// Book creates a scheduled appointment for the patient. The storage
// uniqueness constraint closes the race two concurrent bookings of the
// same slot would otherwise win together.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, start time.Time) (*Appointment, error) {
	start = start.Truncate(time.Minute)
	if err := s.validateBooking(ctx, doctorID, start, nil); err != nil {
		return nil, err
	}
	a := &Appointment{DoctorID: doctorID, PatientID: patientID, StartTime: start}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Reschedule moves the patient's own scheduled appointment to a new
// start, re-running the booking checks with the appointment itself
// excluded from the booked set.
func (s *Service) Reschedule(ctx context.Context, patientID, apptID uuid.UUID, start time.Time) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrNotOwner
	}
	if a.Status.Terminal() {
		return nil, ErrTerminalState
	}

	start = start.Truncate(time.Minute)
	if err := s.validateBooking(ctx, a.DoctorID, start, &apptID); err != nil {
		return nil, err
	}
	if err := s.repo.Reschedule(ctx, apptID, start); err != nil {
		return nil, err
	}
	a.StartTime = start
	return a, nil
}

// Cancel transitions the patient's own scheduled appointment to
// cancelled.
func (s *Service) Cancel(ctx context.Context, patientID, apptID uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil {
		return err
	}
	if a.PatientID != patientID {
		return ErrNotOwner
	}
	return s.repo.UpdateStatus(ctx, apptID, StatusScheduled, StatusCancelled)
}

// MarkPrescribed transitions the doctor's own scheduled appointment to
// completed. Called by the prescription service after a successful save;
// a second prescription attempt finds the appointment already completed.
func (s *Service) MarkPrescribed(ctx context.Context, doctorID, apptID uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil {
		return err
	}
	if a.DoctorID != doctorID {
		return ErrNotOwner
	}
	return s.repo.UpdateStatus(ctx, apptID, StatusScheduled, StatusCompleted)
}

// PurgeForDoctor removes every appointment of a doctor regardless of
// state. Only the admin doctor-deletion cascade calls it.
func (s *Service) PurgeForDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	return s.repo.DeleteByDoctor(ctx, doctorID)
}

// Get returns an appointment if the principal owns either side of it.
func (s *Service) Get(ctx context.Context, principalID, apptID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if a.PatientID != principalID && a.DoctorID != principalID {
		return nil, ErrNotOwner
	}
	return a, nil
}

// DoctorDay lists a doctor's appointments for a day with patient names,
// optionally filtered by a case-insensitive patient-name substring.
func (s *Service) DoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time, patientName string) ([]*DoctorDayItem, error) {
	items, err := s.repo.ListDoctorDay(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}
	if patientName == "" {
		return items, nil
	}
	needle := strings.ToLower(patientName)
	filtered := items[:0]
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.PatientName), needle) {
			filtered = append(filtered, it)
		}
	}
	return filtered, nil
}

// PatientAppointments lists a patient's own appointments. condition is
// "", "past" or "future" relative to now; doctorName filters by
// case-insensitive substring.
func (s *Service) PatientAppointments(ctx context.Context, patientID uuid.UUID, condition, doctorName string) ([]*PatientItem, error) {
	condition = strings.ToLower(strings.TrimSpace(condition))
	if condition != "" && condition != "past" && condition != "future" {
		return nil, fmt.Errorf("condition must be past or future")
	}
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	needle := strings.ToLower(doctorName)
	filtered := items[:0]
	for _, it := range items {
		if condition == "past" && !it.StartTime.Before(now) {
			continue
		}
		if condition == "future" && it.StartTime.Before(now) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(it.DoctorName), needle) {
			continue
		}
		filtered = append(filtered, it)
	}
	return filtered, nil
}
