package report

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

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

func (r *postgresRepo) Counts(ctx context.Context) (Counts, error) {
	const q = `
SELECT
    (SELECT COUNT(*) FROM customers WHERE active),
    (SELECT COUNT(*) FROM invoices),
    (SELECT COUNT(*) FROM invoices WHERE state = 'pending'),
    (SELECT COUNT(*) FROM invoices WHERE state = 'paid'),
    (SELECT COUNT(*) FROM invoices WHERE state = 'overdue'),
    (SELECT COUNT(*) FROM notices WHERE NOT sent)
`
	var c Counts
	err := r.pool.QueryRow(ctx, q).Scan(
		&c.ActiveCustomers,
		&c.TotalInvoices,
		&c.PendingInvoices,
		&c.PaidInvoices,
		&c.OverdueInvoices,
		&c.UnsentNotices,
	)
	if err != nil {
		r.logger.Printf("report repo: counts err=%v", err)
	}
	return c, err
}

func (r *postgresRepo) Totals(ctx context.Context) (Totals, error) {
	const q = `
SELECT
    COALESCE((SELECT SUM(amount) FROM invoices WHERE state = 'paid'), 0)::text,
    COALESCE((SELECT ROUND(AVG(consumption_m3), 2) FROM readings), 0)::text
`
	var (
		t            Totals
		revenue, avg string
	)
	if err := r.pool.QueryRow(ctx, q).Scan(&revenue, &avg); err != nil {
		r.logger.Printf("report repo: totals err=%v", err)
		return t, err
	}
	var err error
	if t.PaidRevenue, err = decimal.NewFromString(revenue); err != nil {
		return t, err
	}
	if t.AverageConsumption, err = decimal.NewFromString(avg); err != nil {
		return t, err
	}
	return t, nil
}

func (r *postgresRepo) InvoicesByMonth(ctx context.Context, since time.Time) ([]domain.MonthlyInvoices, error) {
	const q = `
SELECT to_char(issued_on, 'YYYY-MM') AS month, COUNT(*), COALESCE(SUM(amount), 0)::text
FROM invoices
WHERE issued_on >= $1
GROUP BY month
ORDER BY month
`
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, repository.Translate(err)
	}
	defer rows.Close()

	var out []domain.MonthlyInvoices
	for rows.Next() {
		var (
			m     domain.MonthlyInvoices
			total string
		)
		if err := rows.Scan(&m.Month, &m.Count, &total); err != nil {
			return nil, err
		}
		if m.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *postgresRepo) SearchCustomers(ctx context.Context, q string, limit int) ([]domain.Customer, error) {
	const sql = `
SELECT id::text, name, address, email, COALESCE(phone, ''), active, registered_at
FROM customers
WHERE name ILIKE $1
ORDER BY name
LIMIT $2
`
	rows, err := r.pool.Query(ctx, sql, likePattern(q), limit)
	if err != nil {
		return nil, repository.Translate(err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Email, &c.Phone, &c.Active, &c.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) SearchInvoices(ctx context.Context, q string, limit int) ([]domain.Invoice, error) {
	const sql = `
SELECT id::text, customer_id::text, reading_id::text, number, issued_on, due_on,
       amount::text, state, registered_at, updated_at
FROM invoices
WHERE number ILIKE $1
ORDER BY issued_on DESC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, sql, likePattern(q), limit)
	if err != nil {
		return nil, repository.Translate(err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		var (
			inv    domain.Invoice
			amount string
			state  string
		)
		if err := rows.Scan(&inv.ID, &inv.CustomerID, &inv.ReadingID, &inv.Number, &inv.IssuedOn, &inv.DueOn,
			&amount, &state, &inv.RegisteredAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		if inv.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		inv.State = domain.InvoiceState(state)
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *postgresRepo) SearchNotices(ctx context.Context, q string, limit int) ([]domain.Notice, error) {
	const sql = `
SELECT id::text, customer_id::text, notice_date, notice_type, title, message, sent, sent_at
FROM notices
WHERE title ILIKE $1
ORDER BY notice_date DESC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, sql, likePattern(q), limit)
	if err != nil {
		return nil, repository.Translate(err)
	}
	defer rows.Close()

	var out []domain.Notice
	for rows.Next() {
		var (
			n     domain.Notice
			ntype string
		)
		if err := rows.Scan(&n.ID, &n.CustomerID, &n.Date, &ntype, &n.Title, &n.Message, &n.Sent, &n.SentAt); err != nil {
			return nil, err
		}
		n.Type = domain.NoticeType(ntype)
		out = append(out, n)
	}
	return out, rows.Err()
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
