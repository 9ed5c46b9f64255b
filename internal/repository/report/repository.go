package report

import (
	"context"
	"time"

	"aguas-del-valle/internal/domain"
	"github.com/shopspring/decimal"
)

// Counts are the headline figures shared by the dashboard and reports.
type Counts struct {
	ActiveCustomers int
	TotalInvoices   int
	PendingInvoices int
	PaidInvoices    int
	OverdueInvoices int
	UnsentNotices   int
}

// Totals are the money and volume aggregates of the reports page.
type Totals struct {
	PaidRevenue        decimal.Decimal
	AverageConsumption decimal.Decimal
}

// Repository runs read-only aggregate and search queries.
type Repository interface {
	Counts(ctx context.Context) (Counts, error)
	Totals(ctx context.Context) (Totals, error)
	InvoicesByMonth(ctx context.Context, since time.Time) ([]domain.MonthlyInvoices, error)
	SearchCustomers(ctx context.Context, q string, limit int) ([]domain.Customer, error)
	SearchInvoices(ctx context.Context, q string, limit int) ([]domain.Invoice, error)
	SearchNotices(ctx context.Context, q string, limit int) ([]domain.Notice, error)
}
