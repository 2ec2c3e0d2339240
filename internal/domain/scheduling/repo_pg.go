package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// isUniqueViolation matches the partial unique index on
// (doctor_id, start_time) WHERE status = 'scheduled'.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const apptCols = `id, doctor_id, patient_id, start_time, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartTime, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, doctor_id, patient_id, start_time, status)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.DoctorID, a.PatientID, a.StartTime, a.Status)
	if isUniqueViolation(err) {
		return ErrSlotUnavailable
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
}

func (r *repoPG) ListScheduledByDoctorAndDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment
		WHERE doctor_id = $1 AND status = $2 AND start_time >= $3 AND start_time < $4
		ORDER BY start_time`,
		doctorID, StatusScheduled, dayStart(day), dayStart(day).AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a lost transition race.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrTerminalState
	}
	return nil
}

func (r *repoPG) Reschedule(ctx context.Context, id uuid.UUID, start time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET start_time = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`,
		id, start, StatusScheduled)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotUnavailable
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrTerminalState
	}
	return nil
}

func (r *repoPG) DeleteByDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) ListDoctorDay(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]*DoctorDayItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.status, a.created_at, a.updated_at,
			p.name AS patient_name
		FROM appointment a
		JOIN patient p ON p.id = a.patient_id
		WHERE a.doctor_id = $1 AND a.start_time >= $2 AND a.start_time < $3
		ORDER BY a.start_time`,
		doctorID, dayStart(day), dayStart(day).AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*DoctorDayItem
	for rows.Next() {
		var it DoctorDayItem
		err := rows.Scan(&it.ID, &it.DoctorID, &it.PatientID, &it.StartTime, &it.Status,
			&it.CreatedAt, &it.UpdatedAt, &it.PatientName)
		if err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.doctor_id, a.patient_id, a.start_time, a.status, a.created_at, a.updated_at,
			d.name AS doctor_name, d.specialty AS doctor_specialty
		FROM appointment a
		JOIN doctor d ON d.id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.start_time DESC`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PatientItem
	for rows.Next() {
		var it PatientItem
		err := rows.Scan(&it.ID, &it.DoctorID, &it.PatientID, &it.StartTime, &it.Status,
			&it.CreatedAt, &it.UpdatedAt, &it.DoctorName, &it.DoctorSpecialty)
		if err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
