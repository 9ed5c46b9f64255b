package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"aguas-del-valle/internal/domain"
	reportrepo "aguas-del-valle/internal/repository/report"
	"github.com/shopspring/decimal"
)

type stubRepo struct {
	counts      reportrepo.Counts
	totals      reportrepo.Totals
	monthly     []domain.MonthlyInvoices
	since       time.Time
	searched    []string
	searchLimit int
	err         error
}

func (s *stubRepo) Counts(context.Context) (reportrepo.Counts, error) { return s.counts, s.err }
func (s *stubRepo) Totals(context.Context) (reportrepo.Totals, error) { return s.totals, s.err }

func (s *stubRepo) InvoicesByMonth(_ context.Context, since time.Time) ([]domain.MonthlyInvoices, error) {
	s.since = since
	return s.monthly, s.err
}

func (s *stubRepo) SearchCustomers(_ context.Context, q string, limit int) ([]domain.Customer, error) {
	s.searched = append(s.searched, "customers:"+q)
	s.searchLimit = limit
	return []domain.Customer{{ID: "c1", Name: "Juan Pérez"}}, s.err
}

func (s *stubRepo) SearchInvoices(_ context.Context, q string, _ int) ([]domain.Invoice, error) {
	s.searched = append(s.searched, "invoices:"+q)
	return nil, s.err
}

func (s *stubRepo) SearchNotices(_ context.Context, q string, _ int) ([]domain.Notice, error) {
	s.searched = append(s.searched, "notices:"+q)
	return nil, s.err
}

type stubReadings struct {
	limit int
	out   []domain.Reading
}

func (s *stubReadings) List(_ context.Context, limit int) ([]domain.Reading, error) {
	s.limit = limit
	return s.out, nil
}

func fixedNow() time.Time { return time.Date(2024, time.October, 20, 12, 0, 0, 0, time.UTC) }

func TestDashboard(t *testing.T) {
	repo := &stubRepo{counts: reportrepo.Counts{ActiveCustomers: 3, PendingInvoices: 2, UnsentNotices: 1}}
	readings := &stubReadings{out: []domain.Reading{{ID: "r1"}}}
	svc := New(repo, readings, fixedNow)

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.ActiveCustomers != 3 || d.PendingInvoices != 2 || d.UnsentNotices != 1 {
		t.Fatalf("unexpected counters %+v", d)
	}
	if readings.limit != 5 || len(d.LatestReadings) != 1 {
		t.Fatalf("expected the 5 latest readings, limit=%d got=%d", readings.limit, len(d.LatestReadings))
	}
}

func TestStats_FillsSixMonths(t *testing.T) {
	repo := &stubRepo{
		counts: reportrepo.Counts{TotalInvoices: 4, PaidInvoices: 1},
		totals: reportrepo.Totals{PaidRevenue: decimal.RequireFromString("12750.00"), AverageConsumption: decimal.RequireFromString("17.75")},
		monthly: []domain.MonthlyInvoices{
			{Month: "2024-07", Count: 1, Total: decimal.RequireFromString("5000")},
			{Month: "2024-10", Count: 3, Total: decimal.RequireFromString("30250")},
		},
	}
	svc := New(repo, &stubReadings{}, fixedNow)

	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !repo.since.Equal(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected window from 2024-05-01, got %s", repo.since)
	}
	want := []string{"2024-05", "2024-06", "2024-07", "2024-08", "2024-09", "2024-10"}
	if len(st.InvoicesByMonth) != len(want) {
		t.Fatalf("expected %d months, got %d", len(want), len(st.InvoicesByMonth))
	}
	for i, m := range st.InvoicesByMonth {
		if m.Month != want[i] {
			t.Fatalf("month %d: expected %s, got %s", i, want[i], m.Month)
		}
	}
	if st.InvoicesByMonth[2].Count != 1 || st.InvoicesByMonth[0].Count != 0 {
		t.Fatalf("unexpected monthly counts %+v", st.InvoicesByMonth)
	}
	if st.PaidRevenue.StringFixed(2) != "12750.00" {
		t.Fatalf("unexpected revenue %s", st.PaidRevenue)
	}
}

func TestSearch(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, &stubReadings{}, fixedNow)

	res, err := svc.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(repo.searched) != 0 || len(res.Customers) != 0 {
		t.Fatalf("empty query must not hit the repository")
	}

	res, err = svc.Search(context.Background(), " juan ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Query != "juan" || len(res.Customers) != 1 {
		t.Fatalf("unexpected results %+v", res)
	}
	if res.Invoices == nil || res.Notices == nil {
		t.Fatalf("empty groups should be empty slices, not nil")
	}
	if repo.searchLimit != 10 {
		t.Fatalf("expected limit 10, got %d", repo.searchLimit)
	}
}

func TestSearch_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&stubRepo{err: boom}, &stubReadings{}, fixedNow)
	if _, err := svc.Search(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
