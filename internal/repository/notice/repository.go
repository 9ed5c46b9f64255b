package notice

import (
	"context"

	"aguas-del-valle/internal/domain"
)

// ListFilter narrows List results. A nil Sent returns every notice.
type ListFilter struct {
	Sent  *bool
	Limit int
}

// Repository persists and fetches customer notices.
type Repository interface {
	Create(ctx context.Context, n domain.Notice) (*domain.Notice, error)
	GetByID(ctx context.Context, id string) (*domain.Notice, error)
	Update(ctx context.Context, n domain.Notice) (*domain.Notice, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]domain.Notice, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Notice, error)
	// SaveDelivery stores the Sent and SentAt fields of n.
	SaveDelivery(ctx context.Context, n domain.Notice) (*domain.Notice, error)
}
