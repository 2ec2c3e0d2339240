package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/identity"
)

type doctorDirectory struct {
	repo identity.DoctorRepository
}

// NewDoctorDirectory adapts the identity doctor repository to the
// availability template lookup this package needs.
func NewDoctorDirectory(repo identity.DoctorRepository) DoctorDirectory {
	return &doctorDirectory{repo: repo}
}

func (d *doctorDirectory) AvailabilityTemplate(ctx context.Context, doctorID uuid.UUID) ([]string, error) {
	doc, err := d.repo.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return doc.Availability, nil
}
