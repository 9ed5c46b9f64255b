package customer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"aguas-del-valle/internal/domain"
	custrepo "aguas-del-valle/internal/repository/customer"
)

// memoryRepo is a lightweight in-memory customer repository for tests.
type memoryRepo struct {
	byID   map[string]domain.Customer
	nextID int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]domain.Customer)}
}

func (r *memoryRepo) emailTaken(email, exceptID string) bool {
	for id, c := range r.byID {
		if c.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	if r.emailTaken(c.Email, "") {
		return nil, domain.ErrAlreadyExists
	}
	r.nextID++
	c.ID = fmt.Sprintf("cust-%d", r.nextID)
	r.byID[c.ID] = c
	clone := c
	return &clone, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.byID {
		if c.Email == email {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) List(_ context.Context, f custrepo.ListFilter) ([]domain.Customer, error) {
	var out []domain.Customer
	for _, c := range r.byID {
		if f.Active != nil && c.Active != *f.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	existing, ok := r.byID[c.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.emailTaken(c.Email, c.ID) {
		return nil, domain.ErrAlreadyExists
	}
	existing.Name, existing.Address, existing.Email, existing.Phone = c.Name, c.Address, c.Email, c.Phone
	r.byID[c.ID] = existing
	return &existing, nil
}

func (r *memoryRepo) SetActive(_ context.Context, id string, active bool) (*domain.Customer, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c.Active = active
	r.byID[id] = c
	return &c, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type readingsStub struct{ limit int }

func (s *readingsStub) ListByCustomer(_ context.Context, customerID string, limit int) ([]domain.Reading, error) {
	s.limit = limit
	return []domain.Reading{{ID: "r1", CustomerID: customerID}}, nil
}

type invoicesStub struct{ limit int }

func (s *invoicesStub) ListByCustomer(_ context.Context, customerID string, limit int) ([]domain.Invoice, error) {
	s.limit = limit
	return []domain.Invoice{{ID: "i1", CustomerID: customerID, Number: "B2024100001"}}, nil
}

type noticesStub struct{ limit int }

func (s *noticesStub) ListByCustomer(_ context.Context, _ string, limit int) ([]domain.Notice, error) {
	s.limit = limit
	return nil, nil
}

func validInput() Input {
	return Input{
		Name:    "  María José Núñez ",
		Address: "Calle Los Aromos 1234, Valle Verde",
		Email:   " Maria.Nunez@Example.COM ",
		Phone:   "+56 9 1234 5678",
	}
}

func fieldSet(err error) map[string]bool {
	fields, _ := domain.AsValidation(err)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f.Field] = true
	}
	return out
}

func TestCreate_NormalizesAndActivates(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)

	c, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if c.Name != "María José Núñez" {
		t.Fatalf("expected trimmed name, got %q", c.Name)
	}
	if c.Email != "maria.nunez@example.com" {
		t.Fatalf("expected lower-case email, got %q", c.Email)
	}
	if !c.Active {
		t.Fatalf("new customers must be active")
	}
}

func TestCreate_DuplicateEmailIsFieldError(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	in := validInput()
	in.Email = "MARIA.NUNEZ@example.com"
	_, err := svc.Create(ctx, in)
	if !fieldSet(err)["email"] {
		t.Fatalf("expected email field error, got %v", err)
	}
}

func TestCreate_RejectsInvalidFields(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)

	_, err := svc.Create(context.Background(), Input{
		Name:    "J4ne",
		Address: "short",
		Email:   "not-an-email",
		Phone:   "abc",
	})
	got := fieldSet(err)
	for _, f := range []string{"name", "address", "email", "phone"} {
		if !got[f] {
			t.Fatalf("expected %s to fail, got %v", f, err)
		}
	}
}

func TestCreate_StripsTagsBeforeValidating(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)
	in := validInput()
	in.Name = "<b>Ana</b> Rojas"
	c, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != "Ana Rojas" {
		t.Fatalf("expected tags removed, got %q", c.Name)
	}

	in.Email = "other@example.com"
	in.Name = "<i></i>"
	if _, err := svc.Create(context.Background(), in); !fieldSet(err)["name"] {
		t.Fatalf("name made only of tags must be rejected, got %v", err)
	}
}

func TestCreate_PhoneIsOptional(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)
	in := validInput()
	in.Phone = ""
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("create without phone: %v", err)
	}
}

func TestToggleActive(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)
	ctx := context.Background()
	c, _ := svc.Create(ctx, validInput())

	off, err := svc.ToggleActive(ctx, c.ID)
	if err != nil || off.Active {
		t.Fatalf("expected inactive, got %+v err=%v", off, err)
	}
	on, err := svc.ToggleActive(ctx, c.ID)
	if err != nil || !on.Active {
		t.Fatalf("expected active again, got %+v err=%v", on, err)
	}

	active := true
	list, _ := svc.List(ctx, &active)
	if len(list) != 1 {
		t.Fatalf("expected one active customer, got %d", len(list))
	}
}

func TestUpdate(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, nil, nil, nil)
	ctx := context.Background()
	a, _ := svc.Create(ctx, validInput())
	other := validInput()
	other.Email = "pedro@example.com"
	if _, err := svc.Create(ctx, other); err != nil {
		t.Fatalf("create second: %v", err)
	}

	in := validInput()
	in.Address = "Pasaje El Roble 77, Valle Verde"
	updated, err := svc.Update(ctx, a.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Address != "Pasaje El Roble 77, Valle Verde" {
		t.Fatalf("address not updated: %+v", updated)
	}

	in.Email = "pedro@example.com"
	if _, err := svc.Update(ctx, a.ID, in); !fieldSet(err)["email"] {
		t.Fatalf("expected duplicate email field error, got %v", err)
	}

	if _, err := svc.Update(ctx, "missing", validInput()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDetail_UsesListLimits(t *testing.T) {
	readings, invoices, notices := &readingsStub{}, &invoicesStub{}, &noticesStub{}
	svc := New(newMemoryRepo(), readings, invoices, notices)
	ctx := context.Background()
	c, _ := svc.Create(ctx, validInput())

	d, err := svc.Detail(ctx, c.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if readings.limit != 10 || invoices.limit != 10 || notices.limit != 5 {
		t.Fatalf("unexpected limits %d/%d/%d", readings.limit, invoices.limit, notices.limit)
	}
	if len(d.Readings) != 1 || len(d.Invoices) != 1 || d.Customer.ID != c.ID {
		t.Fatalf("unexpected detail %+v", d)
	}

	if _, err := svc.Detail(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetByEmail_IsCaseInsensitive(t *testing.T) {
	svc := New(newMemoryRepo(), nil, nil, nil)
	ctx := context.Background()
	c, _ := svc.Create(ctx, validInput())

	got, err := svc.GetByEmail(ctx, "  MARIA.nunez@example.com")
	if err != nil || got.ID != c.ID {
		t.Fatalf("expected %s, got %+v err=%v", c.ID, got, err)
	}
}
