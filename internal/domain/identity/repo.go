package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("already exists")
)

type AdminRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByUsername(ctx context.Context, username string) (*Admin, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search filters by partial name (case-insensitive) and exact specialty
	// (case-insensitive); empty arguments match everything.
	Search(ctx context.Context, name, specialty string) ([]*Doctor, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	GetByEmailOrPhone(ctx context.Context, email, phone string) (*Patient, error)
}
