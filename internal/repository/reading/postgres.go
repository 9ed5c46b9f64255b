package reading

import (
	"context"
	"io"
	"log"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const readingColumns = `id::text, customer_id::text, reading_date, consumption_m3::text,
       previous_reading::text, current_reading::text, notes, registered_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, in domain.Reading) (*domain.Reading, error) {
	const q = `
INSERT INTO readings (customer_id, reading_date, consumption_m3, previous_reading, current_reading, notes)
VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6)
RETURNING ` + readingColumns
	return r.scanReading(r.pool.QueryRow(ctx, q,
		in.CustomerID,
		in.Date,
		repository.NumericArg(in.ConsumptionM3),
		repository.NumericArg(in.PreviousReading),
		repository.NumericArg(in.CurrentReading),
		in.Notes,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Reading, error) {
	const q = `SELECT ` + readingColumns + ` FROM readings WHERE id = $1`
	return r.scanReading(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Update(ctx context.Context, in domain.Reading) (*domain.Reading, error) {
	const q = `
UPDATE readings
SET customer_id = $2,
    reading_date = $3,
    consumption_m3 = $4::numeric,
    previous_reading = $5::numeric,
    current_reading = $6::numeric,
    notes = $7
WHERE id = $1
RETURNING ` + readingColumns
	return r.scanReading(r.pool.QueryRow(ctx, q,
		in.ID,
		in.CustomerID,
		in.Date,
		repository.NumericArg(in.ConsumptionM3),
		repository.NumericArg(in.PreviousReading),
		repository.NumericArg(in.CurrentReading),
		in.Notes,
	))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM readings WHERE id = $1`, id)
	if err != nil {
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, limit int) ([]domain.Reading, error) {
	const q = `
SELECT ` + readingColumns + `
FROM readings
ORDER BY reading_date DESC, registered_at DESC
LIMIT NULLIF($1, 0)
`
	rows, err := r.pool.Query(ctx, q, max(limit, 0))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Reading, error) {
	const q = `
SELECT ` + readingColumns + `
FROM readings
WHERE customer_id = $1
ORDER BY reading_date DESC, registered_at DESC
LIMIT NULLIF($2, 0)
`
	rows, err := r.pool.Query(ctx, q, customerID, max(limit, 0))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) Invoiced(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM invoices WHERE reading_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, repository.Translate(err)
	}
	return exists, nil
}

func (r *postgresRepo) collect(rows pgx.Rows) ([]domain.Reading, error) {
	defer rows.Close()
	var out []domain.Reading
	for rows.Next() {
		rd, err := r.scanReading(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rd)
	}
	return out, repository.Translate(rows.Err())
}

func (r *postgresRepo) scanReading(row pgx.Row) (*domain.Reading, error) {
	var (
		rd                          domain.Reading
		consumption, previous, curr *string
	)
	err := row.Scan(&rd.ID, &rd.CustomerID, &rd.Date, &consumption, &previous, &curr, &rd.Notes, &rd.RegisteredAt)
	if err != nil {
		mapped := repository.Translate(err)
		if mapped == err {
			r.logger.Printf("reading repo: scan error=%v", err)
		}
		return nil, mapped
	}
	if rd.ConsumptionM3, err = repository.ParseNumeric(consumption); err != nil {
		return nil, err
	}
	if rd.PreviousReading, err = repository.ParseNumeric(previous); err != nil {
		return nil, err
	}
	if rd.CurrentReading, err = repository.ParseNumeric(curr); err != nil {
		return nil, err
	}
	return &rd, nil
}
