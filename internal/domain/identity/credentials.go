package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
)

// CredentialStore adapts the identity repositories to the auth guard's
// role-partitioned principal lookup. Token subjects are login
// identifiers: username for admins, email for doctors and patients. A
// subject with no principal in the claimed role's partition resolves to
// ErrPrincipalNotFound, which the guard reports as a role mismatch, so
// deleting an account immediately invalidates its outstanding tokens.
type CredentialStore struct {
	admins   AdminRepository
	doctors  DoctorRepository
	patients PatientRepository
}

var _ auth.CredentialStore = (*CredentialStore)(nil)

func NewCredentialStore(admins AdminRepository, doctors DoctorRepository, patients PatientRepository) *CredentialStore {
	return &CredentialStore{admins: admins, doctors: doctors, patients: patients}
}

func (cs *CredentialStore) ResolveAdmin(ctx context.Context, username string) (uuid.UUID, error) {
	a, err := cs.admins.GetByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, mapResolveErr(err)
	}
	return a.ID, nil
}

func (cs *CredentialStore) ResolveDoctor(ctx context.Context, email string) (uuid.UUID, error) {
	d, err := cs.doctors.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return uuid.Nil, mapResolveErr(err)
	}
	return d.ID, nil
}

func (cs *CredentialStore) ResolvePatient(ctx context.Context, email string) (uuid.UUID, error) {
	p, err := cs.patients.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return uuid.Nil, mapResolveErr(err)
	}
	return p.ID, nil
}

func mapResolveErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return auth.ErrPrincipalNotFound
	}
	return err
}
