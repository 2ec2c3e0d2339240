package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/token"
	"github.com/clinic/clinic/pkg/slot"
)

// ErrInvalidCredentials is returned when a login attempt fails. Unknown
// principals and wrong passwords are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AppointmentPurger removes every appointment belonging to a doctor.
// The scheduling service implements it; identity depends only on the
// behavior so doctor deletion can cascade without a package cycle.
type AppointmentPurger interface {
	PurgeForDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)
}

// Service carries login, registration and doctor administration.
type Service struct {
	admins    AdminRepository
	doctors   DoctorRepository
	patients  PatientRepository
	authority *token.Authority
	purger    AppointmentPurger

	// runTx wraps doctor deletion and its appointment cascade in one
	// transaction. Wired to db.WithTx in main; defaults to a direct call.
	runTx func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(
	admins AdminRepository,
	doctors DoctorRepository,
	patients PatientRepository,
	authority *token.Authority,
	purger AppointmentPurger,
	runTx func(ctx context.Context, fn func(ctx context.Context) error) error,
) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		admins:    admins,
		doctors:   doctors,
		patients:  patients,
		authority: authority,
		purger:    purger,
		runTx:     runTx,
	}
}

// normalizeEmail is applied to every stored and looked-up email so a
// mixed-case registration still round-trips through login.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// AdminLogin verifies the admin's password and issues a session token.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (string, error) {
	a, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup admin: %w", err)
	}
	if err := checkPassword(a.PasswordHash, password); err != nil {
		return "", err
	}
	return s.authority.Issue(a.Username)
}

func (s *Service) DoctorLogin(ctx context.Context, email, password string) (string, error) {
	d, err := s.doctors.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup doctor: %w", err)
	}
	if err := checkPassword(d.PasswordHash, password); err != nil {
		return "", err
	}
	return s.authority.Issue(d.Email)
}

func (s *Service) PatientLogin(ctx context.Context, email, password string) (string, error) {
	p, err := s.patients.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup patient: %w", err)
	}
	if err := checkPassword(p.PasswordHash, password); err != nil {
		return "", err
	}
	return s.authority.Issue(p.Email)
}

// RegisterPatientInput carries the patient self-registration fields.
type RegisterPatientInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
	Address  *string `json:"address,omitempty"`
}

func (in RegisterPatientInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// RegisterPatient creates a patient account. An existing account with the
// same email, or the same phone when one is given, is rejected with
// ErrDuplicate before any insert is attempted.
func (s *Service) RegisterPatient(ctx context.Context, in RegisterPatientInput) (*Patient, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	phone := ""
	if in.Phone != nil {
		phone = *in.Phone
	}
	if _, err := s.patients.GetByEmailOrPhone(ctx, normalizeEmail(in.Email), phone); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing patient: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &Patient{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateDoctorInput carries the admin-side doctor creation fields.
type CreateDoctorInput struct {
	Name         string   `json:"name"`
	Specialty    string   `json:"specialty"`
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Phone        *string  `json:"phone,omitempty"`
	Availability []string `json:"availability,omitempty"`
}

func (in CreateDoctorInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(in.Specialty) == "" {
		return fmt.Errorf("specialty is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

func (s *Service) CreateDoctor(ctx context.Context, in CreateDoctorInput) (*Doctor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetByEmail(ctx, normalizeEmail(in.Email)); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing doctor: %w", err)
	}
	slots, err := normalizeAvailability(in.Availability)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	d := &Doctor{
		Name:         strings.TrimSpace(in.Name),
		Specialty:    strings.TrimSpace(in.Specialty),
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Availability: slots,
	}
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDoctorInput holds optional doctor fields; nil means unchanged.
type UpdateDoctorInput struct {
	Name         *string   `json:"name,omitempty"`
	Specialty    *string   `json:"specialty,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	Availability *[]string `json:"availability,omitempty"`
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, in UpdateDoctorInput) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.Specialty != nil && strings.TrimSpace(*in.Specialty) != "" {
		d.Specialty = strings.TrimSpace(*in.Specialty)
	}
	if in.Phone != nil {
		d.Phone = in.Phone
	}
	if in.Availability != nil {
		slots, err := normalizeAvailability(*in.Availability)
		if err != nil {
			return nil, err
		}
		d.Availability = slots
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDoctor removes the doctor and every one of their appointments in
// a single transaction. Patients of scheduled appointments lose them; the
// cascade count is returned for the handler's response.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		return 0, err
	}
	var purged int64
	err := s.runTx(ctx, func(ctx context.Context) error {
		n, err := s.purger.PurgeForDoctor(ctx, id)
		if err != nil {
			return fmt.Errorf("purge appointments: %w", err)
		}
		purged = n
		return s.doctors.Delete(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// SearchDoctors filters by name substring and exact specialty in the
// store, then by availability period in memory. Period is "", "AM" or
// "PM"; a doctor matches AM when any slot is before 12:00, PM otherwise.
func (s *Service) SearchDoctors(ctx context.Context, name, specialty, period string) ([]*Doctor, error) {
	period = strings.ToUpper(strings.TrimSpace(period))
	if period != "" && period != "AM" && period != "PM" {
		return nil, fmt.Errorf("period must be AM or PM")
	}
	items, err := s.doctors.Search(ctx, name, specialty)
	if err != nil {
		return nil, err
	}
	if period == "" {
		return items, nil
	}
	filtered := items[:0]
	for _, d := range items {
		if hasSlotInPeriod(d.Availability, period) {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func hasSlotInPeriod(slots []string, period string) bool {
	for _, label := range slots {
		hour := slot.Hour(label)
		if hour < 0 {
			continue
		}
		if period == "AM" && hour < 12 {
			return true
		}
		if period == "PM" && hour >= 12 {
			return true
		}
	}
	return false
}

func normalizeAvailability(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, raw := range labels {
		norm, err := slot.Normalize(raw)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out, nil
}
