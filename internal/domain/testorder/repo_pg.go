package testorder

import (
	"context"
	"fmt"
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

const itemCols = `id, visit_id, patient_id, name, price, group_total, status,
	result_value, result_unit, reference_range, file_url, ordered_at, performed_at`

func (r *repoPG) CreateBatch(ctx context.Context, items []*Item) error {
	for _, it := range items {
		it.ID = uuid.New()
		if it.OrderedAt.IsZero() {
			it.OrderedAt = time.Now().UTC()
		}
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO test_order_items
				(id, visit_id, patient_id, name, price, group_total, status, ordered_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			it.ID, it.VisitID, it.PatientID, it.Name, it.Price, it.GroupTotal, it.Status, it.OrderedAt,
		)
		if err != nil {
			return fmt.Errorf("insert test order item %q: %w", it.Name, err)
		}
	}
	return nil
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM test_order_items WHERE visit_id = $1 ORDER BY ordered_at, name`,
		visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.VisitID, &it.PatientID, &it.Name, &it.Price, &it.GroupTotal, &it.Status,
			&it.ResultValue, &it.ResultUnit, &it.ReferenceRange, &it.FileURL, &it.OrderedAt, &it.PerformedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) CountUnresolved(ctx context.Context, visitID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM test_order_items
		WHERE visit_id = $1 AND status IN ($2, $3)`,
		visitID, ItemPending, ItemInProgress,
	).Scan(&n)
	return n, err
}

func (r *repoPG) SumPrices(ctx context.Context, visitID uuid.UUID) (int64, error) {
	var sum int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(price), 0) FROM test_order_items WHERE visit_id = $1`,
		visitID,
	).Scan(&sum)
	return sum, err
}

func (r *repoPG) RecordResult(ctx context.Context, id uuid.UUID, value, unit, refRange, fileURL *string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE test_order_items SET
			result_value = $2, result_unit = $3, reference_range = $4, file_url = $5,
			status = $6, performed_at = NOW()
		WHERE id = $1`,
		id, value, unit, refRange, fileURL, ItemCompleted,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("test order item %s not found", id)
	}
	return nil
}
