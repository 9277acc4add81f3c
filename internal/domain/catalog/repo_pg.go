package catalog

import (
	"context"
	"errors"

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

func (r *repoPG) ListServices(ctx context.Context) ([]*ExamService, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, description, price, active FROM services WHERE active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ExamService
	for rows.Next() {
		var s ExamService
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) ListLabTests(ctx context.Context) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, price FROM lab_tests ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*LabTest
	for rows.Next() {
		var t LabTest
		if err := rows.Scan(&t.ID, &t.Name, &t.Price); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *repoPG) ListMedicines(ctx context.Context) ([]*Medicine, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, name, unit, price FROM medicines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.Price); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *repoPG) ServicePrice(ctx context.Context, id uuid.UUID) (int64, bool, error) {
	var price int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT price FROM services WHERE id = $1 AND active = true`, id,
	).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

func (r *repoPG) MedicinePrices(ctx context.Context, names []string) (map[string]int64, error) {
	out := make(map[string]int64, len(names))
	if len(names) == 0 {
		return out, nil
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT name, price FROM medicines WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var price int64
		if err := rows.Scan(&name, &price); err != nil {
			return nil, err
		}
		out[name] = price
	}
	return out, rows.Err()
}
