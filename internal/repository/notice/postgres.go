package notice

import (
	"context"
	"io"
	"log"
	"time"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noticeColumns = `id::text, customer_id::text, notice_date, notice_type, title, message, sent, sent_at`

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

func (r *postgresRepo) Create(ctx context.Context, n domain.Notice) (*domain.Notice, error) {
	const q = `
INSERT INTO notices (customer_id, notice_date, notice_type, title, message)
VALUES ($1, COALESCE($2, now()), $3, $4, $5)
RETURNING ` + noticeColumns
	var date *time.Time
	if !n.Date.IsZero() {
		date = &n.Date
	}
	return r.scanNotice(r.pool.QueryRow(ctx, q, n.CustomerID, date, string(n.Type), n.Title, n.Message))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Notice, error) {
	const q = `SELECT ` + noticeColumns + ` FROM notices WHERE id = $1`
	return r.scanNotice(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Update(ctx context.Context, n domain.Notice) (*domain.Notice, error) {
	const q = `
UPDATE notices
SET customer_id = $2, notice_type = $3, title = $4, message = $5
WHERE id = $1
RETURNING ` + noticeColumns
	return r.scanNotice(r.pool.QueryRow(ctx, q, n.ID, n.CustomerID, string(n.Type), n.Title, n.Message))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return repository.Translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Notice, error) {
	const q = `
SELECT ` + noticeColumns + `
FROM notices
WHERE ($1::boolean IS NULL OR sent = $1)
ORDER BY notice_date DESC
LIMIT NULLIF($2, 0)
`
	rows, err := r.pool.Query(ctx, q, f.Sent, max(f.Limit, 0))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Notice, error) {
	const q = `
SELECT ` + noticeColumns + `
FROM notices
WHERE customer_id = $1
ORDER BY notice_date DESC
LIMIT NULLIF($2, 0)
`
	rows, err := r.pool.Query(ctx, q, customerID, max(limit, 0))
	if err != nil {
		return nil, repository.Translate(err)
	}
	return r.collect(rows)
}

func (r *postgresRepo) SaveDelivery(ctx context.Context, n domain.Notice) (*domain.Notice, error) {
	const q = `UPDATE notices SET sent = $2, sent_at = $3 WHERE id = $1 RETURNING ` + noticeColumns
	return r.scanNotice(r.pool.QueryRow(ctx, q, n.ID, n.Sent, n.SentAt))
}

func (r *postgresRepo) collect(rows pgx.Rows) ([]domain.Notice, error) {
	defer rows.Close()
	var out []domain.Notice
	for rows.Next() {
		n, err := r.scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, repository.Translate(rows.Err())
}

func (r *postgresRepo) scanNotice(row pgx.Row) (*domain.Notice, error) {
	var (
		n     domain.Notice
		ntype string
	)
	err := row.Scan(&n.ID, &n.CustomerID, &n.Date, &ntype, &n.Title, &n.Message, &n.Sent, &n.SentAt)
	if err != nil {
		mapped := repository.Translate(err)
		if mapped == err {
			r.logger.Printf("notice repo: scan error=%v", err)
		}
		return nil, mapped
	}
	n.Type = domain.NoticeType(ntype)
	return &n, nil
}
