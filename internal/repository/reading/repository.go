package reading

import (
	"context"

	"aguas-del-valle/internal/domain"
)

// Repository persists and fetches meter readings.
type Repository interface {
	Create(ctx context.Context, r domain.Reading) (*domain.Reading, error)
	GetByID(ctx context.Context, id string) (*domain.Reading, error)
	Update(ctx context.Context, r domain.Reading) (*domain.Reading, error)
	Delete(ctx context.Context, id string) error
	// List returns readings newest date first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]domain.Reading, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Reading, error)
	// Invoiced reports whether any invoice was issued from the reading.
	Invoiced(ctx context.Context, id string) (bool, error)
}
