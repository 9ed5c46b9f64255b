package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	reportrepo "aguas-del-valle/internal/repository/report"
	"github.com/shopspring/decimal"
)

const (
	dashboardReadings = 5
	statsMonths       = 6
	searchLimit       = 10
)

type readingLister interface {
	List(ctx context.Context, limit int) ([]domain.Reading, error)
}

// Service builds the dashboard, the reports page and global search.
type Service struct {
	repo     reportrepo.Repository
	readings readingLister
	now      func() time.Time
}

// New creates a Service. now may be nil.
func New(repo reportrepo.Repository, readings readingLister, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, readings: readings, now: now}
}

// Dashboard returns the headline counters and the latest readings.
func (s *Service) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	latest, err := s.readings.List(ctx, dashboardReadings)
	if err != nil {
		return nil, fmt.Errorf("dashboard readings: %w", err)
	}
	if latest == nil {
		latest = []domain.Reading{}
	}
	return &domain.Dashboard{
		ActiveCustomers: counts.ActiveCustomers,
		PendingInvoices: counts.PendingInvoices,
		UnsentNotices:   counts.UnsentNotices,
		LatestReadings:  latest,
	}, nil
}

// Stats returns the reporting figures. InvoicesByMonth always holds the last
// six months, oldest first, with empty months reported as zero.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats counts: %w", err)
	}
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}

	current, _ := domain.InvoicePeriod(s.now().UTC())
	since := current.AddDate(0, -(statsMonths - 1), 0)
	monthly, err := s.repo.InvoicesByMonth(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("stats monthly: %w", err)
	}

	return &domain.Stats{
		ActiveCustomers:    counts.ActiveCustomers,
		TotalInvoices:      counts.TotalInvoices,
		PendingInvoices:    counts.PendingInvoices,
		PaidInvoices:       counts.PaidInvoices,
		OverdueInvoices:    counts.OverdueInvoices,
		PaidRevenue:        totals.PaidRevenue,
		AverageConsumption: totals.AverageConsumption,
		InvoicesByMonth:    fillMonths(since, monthly),
	}, nil
}

func fillMonths(since time.Time, rows []domain.MonthlyInvoices) []domain.MonthlyInvoices {
	byMonth := make(map[string]domain.MonthlyInvoices, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}
	out := make([]domain.MonthlyInvoices, 0, statsMonths)
	for i := 0; i < statsMonths; i++ {
		key := domain.PeriodKey(since.AddDate(0, i, 0))
		m, ok := byMonth[key]
		if !ok {
			m = domain.MonthlyInvoices{Month: key, Total: decimal.Zero}
		}
		out = append(out, m)
	}
	return out
}

// Search matches customers by name, invoices by number and notices by title.
// An empty query returns empty results.
func (s *Service) Search(ctx context.Context, q string) (*domain.SearchResults, error) {
	q = strings.TrimSpace(q)
	res := &domain.SearchResults{
		Query:     q,
		Customers: []domain.Customer{},
		Invoices:  []domain.Invoice{},
		Notices:   []domain.Notice{},
	}
	if q == "" {
		return res, nil
	}

	customers, err := s.repo.SearchCustomers(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	invoices, err := s.repo.SearchInvoices(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	notices, err := s.repo.SearchNotices(ctx, q, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search notices: %w", err)
	}
	res.Customers = append(res.Customers, customers...)
	res.Invoices = append(res.Invoices, invoices...)
	res.Notices = append(res.Notices, notices...)
	return res, nil
}
