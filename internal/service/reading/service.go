package reading

import (
	"context"
	"errors"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	readingrepo "aguas-del-valle/internal/repository/reading"
	"github.com/shopspring/decimal"
)

// Service records meter readings.
type Service struct {
	repo      readingrepo.Repository
	customers customerGetter
}

type customerGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// New creates a Service.
func New(repo readingrepo.Repository, customers customerGetter) *Service {
	return &Service{repo: repo, customers: customers}
}

// Input carries the fields of a reading. Zero NullDecimals mean "not given".
type Input struct {
	CustomerID      string              `json:"customerId"`
	Date            time.Time           `json:"date"`
	ConsumptionM3   decimal.NullDecimal `json:"consumptionM3"`
	PreviousReading decimal.NullDecimal `json:"previousReading"`
	CurrentReading  decimal.NullDecimal `json:"currentReading"`
	Notes           string              `json:"notes"`
}

// Create validates and stores a reading.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Reading, error) {
	r, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, r)
}

// Update re-validates the full reading; consumption is derived again from the
// meter values. Invoices already issued keep their amount, and an invoiced
// reading stays with its customer.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Reading, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	if r.CustomerID != existing.CustomerID {
		invoiced, err := s.repo.Invoiced(ctx, id)
		if err != nil {
			return nil, err
		}
		if invoiced {
			return nil, domain.ValidationError{Field: "customerId", Message: "reading has invoices and cannot move to another customer"}
		}
	}
	r.ID = id
	return s.repo.Update(ctx, r)
}

// Get returns one reading.
func (s *Service) Get(ctx context.Context, id string) (*domain.Reading, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes a reading and the invoices issued from it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// List returns readings newest first.
func (s *Service) List(ctx context.Context, limit int) ([]domain.Reading, error) {
	return s.repo.List(ctx, limit)
}

// ListByCustomer returns one customer's readings newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Reading, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListByCustomer(ctx, customerID, limit)
}

func (s *Service) prepare(ctx context.Context, in Input) (domain.Reading, error) {
	r, err := domain.NormalizeReading(domain.Reading{
		CustomerID:      strings.TrimSpace(in.CustomerID),
		Date:            in.Date,
		ConsumptionM3:   in.ConsumptionM3,
		PreviousReading: in.PreviousReading,
		CurrentReading:  in.CurrentReading,
		Notes:           strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return domain.Reading{}, err
	}
	if _, err := s.customers.GetByID(ctx, r.CustomerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Reading{}, domain.ValidationError{Field: "customerId", Message: "customer does not exist"}
		}
		return domain.Reading{}, err
	}
	return r, nil
}
