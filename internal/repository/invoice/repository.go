package invoice

import (
	"context"
	"time"

	"aguas-del-valle/internal/domain"
)

// ListFilter narrows List results. A nil State returns every invoice.
type ListFilter struct {
	State *domain.InvoiceState
	Limit int
}

// Repository persists invoices and hands out monthly sequence numbers.
type Repository interface {
	// Create inserts an invoice that already carries its number. A taken
	// number yields domain.ErrAlreadyExists.
	Create(ctx context.Context, inv domain.Invoice) (*domain.Invoice, error)
	// NextSequence atomically advances the counter of the month containing
	// issuedOn and returns the new value.
	NextSequence(ctx context.Context, issuedOn time.Time) (int, error)
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context, f ListFilter) ([]domain.Invoice, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Invoice, error)
	// UpdateState moves the invoice from -> to only if it is still in from.
	UpdateState(ctx context.Context, id string, from, to domain.InvoiceState) (*domain.Invoice, error)
	Delete(ctx context.Context, id string) error
}
