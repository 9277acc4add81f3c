package medrecord

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

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, visit_id, patient_id, doctor_id, diagnosis, treatment, note, visible, created_at, updated_at`

func (r *repoPG) EnsurePlaceholder(ctx context.Context, visitID, patientID, doctorID uuid.UUID, note string) error {
	now := time.Now().UTC()
	var notePtr *string
	if note != "" {
		notePtr = &note
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_records (id, visit_id, patient_id, doctor_id, diagnosis, note, visible, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,false,$7,$7)
		ON CONFLICT (visit_id) DO NOTHING`,
		uuid.New(), visitID, patientID, doctorID, PlaceholderDiagnosis, notePtr, now,
	)
	return err
}

func (r *repoPG) UpsertByVisit(ctx context.Context, rec *MedicalRecord) error {
	now := time.Now().UTC()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_records (id, visit_id, patient_id, doctor_id, diagnosis, treatment, note, visible, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
		ON CONFLICT (visit_id) DO UPDATE SET
			doctor_id = EXCLUDED.doctor_id,
			diagnosis = EXCLUDED.diagnosis,
			treatment = EXCLUDED.treatment,
			note = EXCLUDED.note,
			visible = EXCLUDED.visible,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		rec.ID, rec.VisitID, rec.PatientID, rec.DoctorID, rec.Diagnosis, rec.Treatment, rec.Note, rec.Visible, now,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*MedicalRecord, error) {
	var rec MedicalRecord
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM medical_records WHERE visit_id = $1`, visitID,
	).Scan(&rec.ID, &rec.VisitID, &rec.PatientID, &rec.DoctorID, &rec.Diagnosis, &rec.Treatment, &rec.Note, &rec.Visible, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.LinesByRecord(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Prescriptions = lines
	return &rec, nil
}

func (r *repoPG) ListVisibleByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_records WHERE patient_id = $1 AND visible = true`, patientID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM medical_records
		 WHERE patient_id = $1 AND visible = true
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*MedicalRecord
	for rows.Next() {
		var rec MedicalRecord
		if err := rows.Scan(&rec.ID, &rec.VisitID, &rec.PatientID, &rec.DoctorID, &rec.Diagnosis, &rec.Treatment, &rec.Note, &rec.Visible, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, &rec)
	}
	return records, total, rows.Err()
}

func (r *repoPG) SetVisibility(ctx context.Context, visitID uuid.UUID, visible bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE medical_records SET visible = $2, updated_at = NOW() WHERE visit_id = $1`,
		visitID, visible)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *repoPG) ReplaceLines(ctx context.Context, recordID uuid.UUID, lines []*PrescriptionLine) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `DELETE FROM prescription_lines WHERE record_id = $1`, recordID); err != nil {
		return err
	}
	for _, l := range lines {
		l.ID = uuid.New()
		l.RecordID = recordID
		if _, err := q.Exec(ctx, `
			INSERT INTO prescription_lines (id, record_id, name, dosage, duration)
			VALUES ($1,$2,$3,$4,$5)`,
			l.ID, l.RecordID, l.Name, l.Dosage, l.Duration,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) LinesByRecord(ctx context.Context, recordID uuid.UUID) ([]*PrescriptionLine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, record_id, name, dosage, duration FROM prescription_lines WHERE record_id = $1 ORDER BY name`,
		recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*PrescriptionLine
	for rows.Next() {
		var l PrescriptionLine
		if err := rows.Scan(&l.ID, &l.RecordID, &l.Name, &l.Dosage, &l.Duration); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

func (r *repoPG) MedicineNames(ctx context.Context, visitID uuid.UUID) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.name
		FROM prescription_lines p
		JOIN medical_records m ON m.id = p.record_id
		WHERE m.visit_id = $1`,
		visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
