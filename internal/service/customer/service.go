package customer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"aguas-del-valle/internal/domain"
	custrepo "aguas-del-valle/internal/repository/customer"
	"github.com/go-playground/validator/v10"
)

const (
	detailReadings = 10
	detailInvoices = 10
	detailNotices  = 5
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	namePattern  = regexp.MustCompile(`^[\p{L}\s]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]{8,20}$`)
)

// Service manages the customer directory.
type Service struct {
	repo     custrepo.Repository
	readings readingLister
	invoices invoiceLister
	notices  noticeLister
	validate *validator.Validate
}

type readingLister interface {
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Reading, error)
}

type invoiceLister interface {
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Invoice, error)
}

type noticeLister interface {
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Notice, error)
}

// New creates a Service. The listers feed Detail and may be nil when only
// directory operations are needed.
func New(repo custrepo.Repository, readings readingLister, invoices invoiceLister, notices noticeLister) *Service {
	return &Service{
		repo:     repo,
		readings: readings,
		invoices: invoices,
		notices:  notices,
		validate: validator.New(),
	}
}

// Input carries the editable customer fields.
type Input struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Create registers a new active customer.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Customer, error) {
	c, err := s.clean(in)
	if err != nil {
		return nil, err
	}
	c.Active = true
	created, err := s.repo.Create(ctx, c)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.ValidationError{Field: "email", Message: "a customer with this email already exists"}
	}
	return created, err
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail looks a customer up by email, case-insensitively.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// List returns customers ordered by name.
func (s *Service) List(ctx context.Context, active *bool) ([]domain.Customer, error) {
	return s.repo.List(ctx, custrepo.ListFilter{Active: active})
}

// Update replaces the editable fields of a customer.
func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Customer, error) {
	c, err := s.clean(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	updated, err := s.repo.Update(ctx, c)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.ValidationError{Field: "email", Message: "a customer with this email already exists"}
	}
	return updated, err
}

// ToggleActive flips the active flag. Deactivation is the normal way to
// retire a customer; Delete removes every dependent record.
func (s *Service) ToggleActive(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.SetActive(ctx, id, !c.Active)
}

// Delete removes the customer and, by cascade, its readings, invoices and notices.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Detail returns the customer with its latest readings, invoices and notices.
func (s *Service) Detail(ctx context.Context, id string) (*domain.CustomerDetail, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &domain.CustomerDetail{Customer: *c}
	if s.readings != nil {
		if detail.Readings, err = s.readings.ListByCustomer(ctx, id, detailReadings); err != nil {
			return nil, fmt.Errorf("list readings: %w", err)
		}
	}
	if s.invoices != nil {
		if detail.Invoices, err = s.invoices.ListByCustomer(ctx, id, detailInvoices); err != nil {
			return nil, fmt.Errorf("list invoices: %w", err)
		}
	}
	if s.notices != nil {
		if detail.Notices, err = s.notices.ListByCustomer(ctx, id, detailNotices); err != nil {
			return nil, fmt.Errorf("list notices: %w", err)
		}
	}
	return detail, nil
}

func (s *Service) clean(in Input) (domain.Customer, error) {
	var errs domain.ValidationErrors

	name := sanitize(in.Name)
	switch {
	case utf8.RuneCountInString(name) < 2:
		errs.Add("name", "name must be at least 2 characters")
	case utf8.RuneCountInString(name) > 200:
		errs.Add("name", "name must be at most 200 characters")
	case !namePattern.MatchString(name):
		errs.Add("name", "name may only contain letters and spaces")
	}

	address := sanitize(in.Address)
	if utf8.RuneCountInString(address) < 10 {
		errs.Add("address", "address must be at least 10 characters")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		errs.Add("email", "a valid email is required")
	}

	phone := sanitize(in.Phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		errs.Add("phone", "invalid phone format")
	}

	if err := errs.Err(); err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{Name: name, Address: address, Email: email, Phone: phone}, nil
}

func sanitize(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}
