package customer

import (
	"context"
	"io"
	"log"
	"strings"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id::text, name, address, email, COALESCE(phone, ''), active, registered_at`

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

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
INSERT INTO customers (name, address, email, phone, active)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, c.Name, c.Address, strings.ToLower(c.Email), c.Phone, c.Active))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM customers
WHERE ($1::boolean IS NULL OR active = $1)
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q, f.Active)
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	const q = `
UPDATE customers
SET name = $2, address = $3, email = $4, phone = NULLIF($5, '')
WHERE id = $1
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Address, strings.ToLower(c.Email), c.Phone))
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) (*domain.Customer, error) {
	const q = `UPDATE customers SET active = $2 WHERE id = $1 RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id, active))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) collect(rows pgx.Rows) ([]domain.Customer, error) {
	defer rows.Close()
	var out []domain.Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Email, &c.Phone, &c.Active, &c.RegisteredAt)
	if err != nil {
		mapped := repository.Translate(err)
		if mapped == err {
			r.logger.Printf("customer repo: scan error=%v", err)
		}
		return nil, mapped
	}
	return &c, nil
}
