package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"aguas-del-valle/internal/domain"
	customersvc "aguas-del-valle/internal/service/customer"
	invoicesvc "aguas-del-valle/internal/service/invoice"
	noticesvc "aguas-del-valle/internal/service/notice"
	readingsvc "aguas-del-valle/internal/service/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	customers map[string]domain.Customer
	readings  []readingsvc.Input
	invoices  []invoicesvc.GenerateInput
	states    map[string]string
	notices   []noticesvc.Input
}

func newFakeStore() *fakeStore {
	return &fakeStore{customers: map[string]domain.Customer{}, states: map[string]string{}}
}

type fakeCustomers struct{ s *fakeStore }

func (f fakeCustomers) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	c, ok := f.s.customers[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f fakeCustomers) Create(_ context.Context, in customersvc.Input) (*domain.Customer, error) {
	c := domain.Customer{ID: fmt.Sprintf("c%d", len(f.s.customers)+1), Name: in.Name, Email: in.Email}
	f.s.customers[in.Email] = c
	return &c, nil
}

type fakeReadings struct{ s *fakeStore }

func (f fakeReadings) Create(_ context.Context, in readingsvc.Input) (*domain.Reading, error) {
	f.s.readings = append(f.s.readings, in)
	return &domain.Reading{ID: fmt.Sprintf("r%d", len(f.s.readings)), CustomerID: in.CustomerID, Date: in.Date}, nil
}

type fakeInvoices struct{ s *fakeStore }

func (f fakeInvoices) Generate(_ context.Context, in invoicesvc.GenerateInput) (*domain.Invoice, error) {
	f.s.invoices = append(f.s.invoices, in)
	return &domain.Invoice{ID: fmt.Sprintf("i%d", len(f.s.invoices)), Number: fmt.Sprintf("B%04d", len(f.s.invoices))}, nil
}

func (f fakeInvoices) ChangeState(_ context.Context, id, target string) (*domain.Invoice, bool, error) {
	f.s.states[id] = target
	return &domain.Invoice{ID: id}, true, nil
}

type fakeNotices struct{ s *fakeStore }

func (f fakeNotices) Create(_ context.Context, in noticesvc.Input) (*domain.Notice, error) {
	f.s.notices = append(f.s.notices, in)
	return &domain.Notice{ID: "n"}, nil
}

func services(s *fakeStore) Services {
	return Services{
		Customers: fakeCustomers{s},
		Readings:  fakeReadings{s},
		Invoices:  fakeInvoices{s},
		Notices:   fakeNotices{s},
	}
}

func TestDefaultFixturesParse(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	require.Len(t, f.Customers, 3)
	assert.Equal(t, "juan.perez@email.com", f.Customers[0].Email)
	assert.Equal(t, "125.5", f.Customers[0].Readings[0].Current)
}

func TestApply_CreatesAndIsIdempotent(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	store := newFakeStore()
	now := time.Date(2024, time.October, 5, 15, 0, 0, 0, time.UTC)

	res, err := Apply(context.Background(), services(store), f, now, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Customers: 3, Readings: 4, Invoices: 3, Notices: 2}, res)

	first := store.readings[0]
	assert.Equal(t, time.Date(2024, time.October, 5, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "25.5", first.CurrentReading.Decimal.Sub(first.PreviousReading.Decimal).String())
	assert.Equal(t, time.Date(2024, time.November, 4, 0, 0, 0, 0, time.UTC), store.invoices[0].DueOn)
	assert.Equal(t, "paid", store.states["i2"])
	assert.Equal(t, "overdue", store.states["i3"])

	again, err := Apply(context.Background(), services(store), f, now, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 3}, again)
}

func TestApply_RejectsBadDecimal(t *testing.T) {
	f, err := Parse([]byte(`
customers:
  - name: Ana Rojas
    email: ana@example.com
    address: Calle Larga 1234, Valle
    readings:
      - current: "doce"
`))
	require.NoError(t, err)
	_, err = Apply(context.Background(), services(newFakeStore()), f, time.Now(), nil)
	assert.ErrorContains(t, err, "current")
}
