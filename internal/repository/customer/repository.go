package customer

import (
	"context"

	"aguas-del-valle/internal/domain"
)

// ListFilter narrows List results. A nil Active returns every customer.
type ListFilter struct {
	Active *bool
}

// Repository persists and fetches customers.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	List(ctx context.Context, f ListFilter) ([]domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	SetActive(ctx context.Context, id string, active bool) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
}
