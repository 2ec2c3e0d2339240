package prescription

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/scheduling"
)

type mockRepo struct {
	byAppt  map[uuid.UUID]*Prescription
	created []*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{byAppt: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	if _, ok := m.byAppt[p.AppointmentID]; ok {
		return ErrDuplicate
	}
	p.ID = uuid.New()
	m.byAppt[p.AppointmentID] = p
	m.created = append(m.created, p)
	return nil
}

func (m *mockRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	if p, ok := m.byAppt[appointmentID]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

type mockCompleter struct {
	completed map[uuid.UUID]uuid.UUID
	err       error
}

func (m *mockCompleter) MarkPrescribed(_ context.Context, doctorID, appointmentID uuid.UUID) error {
	if m.err != nil {
		return m.err
	}
	if m.completed == nil {
		m.completed = make(map[uuid.UUID]uuid.UUID)
	}
	m.completed[appointmentID] = doctorID
	return nil
}

func validInput(apptID uuid.UUID) SaveInput {
	return SaveInput{
		AppointmentID: apptID,
		PatientName:   "Ada Lovelace",
		Medication:    "Paracetamol",
		Dosage:        "500mg",
	}
}

func TestSaveCompletesAppointment(t *testing.T) {
	repo := newMockRepo()
	completer := &mockCompleter{}
	svc := NewService(repo, completer, nil)

	doctorID := uuid.New()
	apptID := uuid.New()
	p, err := svc.Save(context.Background(), doctorID, validInput(apptID))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if p.ID == uuid.Nil || p.DoctorID != doctorID {
		t.Fatalf("prescription = %+v", p)
	}
	if completer.completed[apptID] != doctorID {
		t.Fatal("appointment was not marked completed")
	}
}

func TestSaveRejectsSecondPrescription(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockCompleter{}, nil)

	doctorID := uuid.New()
	apptID := uuid.New()
	if _, err := svc.Save(context.Background(), doctorID, validInput(apptID)); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(context.Background(), doctorID, validInput(apptID)); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second save: got %v, want ErrDuplicate", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d rows, want 1", len(repo.created))
	}
}

func TestSavePropagatesTransitionFailure(t *testing.T) {
	repo := newMockRepo()
	completer := &mockCompleter{err: scheduling.ErrTerminalState}
	svc := NewService(repo, completer, nil)

	_, err := svc.Save(context.Background(), uuid.New(), validInput(uuid.New()))
	if !errors.Is(err, scheduling.ErrTerminalState) {
		t.Fatalf("got %v, want ErrTerminalState", err)
	}
}

func TestSaveValidation(t *testing.T) {
	svc := NewService(newMockRepo(), &mockCompleter{}, nil)
	doctorID := uuid.New()

	cases := []struct {
		name string
		in   SaveInput
	}{
		{"missing appointment", SaveInput{PatientName: "Ada Lovelace", Medication: "Paracetamol", Dosage: "500mg"}},
		{"short patient name", func() SaveInput { in := validInput(uuid.New()); in.PatientName = "Al"; return in }()},
		{"short medication", func() SaveInput { in := validInput(uuid.New()); in.Medication = "Rx"; return in }()},
		{"short dosage", func() SaveInput { in := validInput(uuid.New()); in.Dosage = "1x"; return in }()},
		{"long notes", func() SaveInput {
			in := validInput(uuid.New())
			notes := make([]byte, 201)
			for i := range notes {
				notes[i] = 'n'
			}
			s := string(notes)
			in.DoctorNotes = &s
			return in
		}()},
	}
	for _, tc := range cases {
		if _, err := svc.Save(context.Background(), doctorID, tc.in); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestGetByAppointment(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, &mockCompleter{}, nil)

	apptID := uuid.New()
	if _, err := svc.GetByAppointment(context.Background(), apptID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Save(context.Background(), uuid.New(), validInput(apptID)); err != nil {
		t.Fatal(err)
	}
	p, err := svc.GetByAppointment(context.Background(), apptID)
	if err != nil || p.AppointmentID != apptID {
		t.Fatalf("get = %+v err = %v", p, err)
	}
}
