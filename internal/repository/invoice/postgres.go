package invoice

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id::text, customer_id::text, reading_id::text, number, issued_on, due_on,
       amount::text, state, registered_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error) {
	const q = `
INSERT INTO invoices (customer_id, reading_id, number, issued_on, due_on, amount, state)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
RETURNING ` + invoiceColumns
	return r.scanInvoice(r.pool.QueryRow(ctx, q,
		inv.CustomerID,
		inv.ReadingID,
		inv.Number,
		inv.IssuedOn,
		inv.DueOn,
		inv.Amount.StringFixed(2),
		string(inv.State),
	))
}

// NextSequence seeds a missing month from the invoices already issued in it,
// so numbering continues correctly over rows created before the counter existed.
// The upsert takes a row lock on the month, serializing concurrent callers.
func (r *postgresRepo) NextSequence(ctx context.Context, issuedOn time.Time) (int, error) {
	const q = `
INSERT INTO invoice_sequences (period, last_value)
SELECT $1, COUNT(*) + 1
FROM invoices
WHERE issued_on >= $2 AND issued_on < $3
ON CONFLICT (period) DO UPDATE
SET last_value = invoice_sequences.last_value + 1,
    updated_at = now()
RETURNING last_value
`
	start, end := domain.InvoicePeriod(issuedOn)
	var seq int
	if err := r.pool.QueryRow(ctx, q, domain.PeriodKey(issuedOn), start, end).Scan(&seq); err != nil {
		r.logger.Printf("invoice repo: next sequence period=%s err=%v", domain.PeriodKey(issuedOn), err)
		return 0, err
	}
	return seq, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.scanInvoice(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Invoice, error) {
	const q = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE ($1::text IS NULL OR state = $1)
ORDER BY issued_on DESC, number DESC
LIMIT NULLIF($2, 0)
`
	var state *string
	if f.State != nil {
		s := string(*f.State)
		state = &s
	}
	rows, err := r.pool.Query(ctx, q, state, max(f.Limit, 0))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Invoice, error) {
	const q = `
SELECT ` + invoiceColumns + `
FROM invoices
WHERE customer_id = $1
ORDER BY issued_on DESC, number DESC
LIMIT NULLIF($2, 0)
`
	rows, err := r.pool.Query(ctx, q, customerID, max(limit, 0))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) UpdateState(ctx context.Context, id string, from, to domain.InvoiceState) (*domain.Invoice, error) {
	const q = `
UPDATE invoices
SET state = $3, updated_at = now()
WHERE id = $1 AND state = $2
RETURNING ` + invoiceColumns
	inv, err := r.scanInvoice(r.pool.QueryRow(ctx, q, id, string(from), string(to)))
	if errors.Is(err, domain.ErrNotFound) {
		// distinguish a missing invoice from one that moved under us
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, domain.ErrStateConflict
		}
	}
	return inv, err
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) collect(rows pgx.Rows) ([]domain.Invoice, error) {
	defer rows.Close()
	var out []domain.Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, repository.Translate(rows.Err())
}

func (r *postgresRepo) scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv    domain.Invoice
		amount string
		state  string
	)
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.ReadingID, &inv.Number, &inv.IssuedOn, &inv.DueOn,
		&amount, &state, &inv.RegisteredAt, &inv.UpdatedAt)
	if err != nil {
		mapped := repository.Translate(err)
		if mapped == err {
			r.logger.Printf("invoice repo: scan error=%v", err)
		}
		return nil, mapped
	}
	if inv.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	inv.State = domain.InvoiceState(state)
	return &inv, nil
}
