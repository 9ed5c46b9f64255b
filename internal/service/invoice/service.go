package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/mail"
	"aguas-del-valle/internal/render"
	invoicerepo "aguas-del-valle/internal/repository/invoice"
)

// maxNumberAttempts bounds retries when a generated number collides with one
// stored under a caller-supplied number.
const maxNumberAttempts = 5

// Renderer turns an invoice document into a printable file.
type Renderer interface {
	RenderInvoice(w io.Writer, doc domain.InvoiceDocument) error
}

type customerGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

type readingGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Reading, error)
}

// Options configures delivery and defaults. Zero values are replaced by
// sensible defaults in New.
type Options struct {
	DueDays     int
	CompanyName string
	MailFrom    string
	Renderer    Renderer
	Mailer      mail.Sender
	Logger      *log.Logger
	Now         func() time.Time
}

// Service issues invoices and drives their lifecycle.
type Service struct {
	repo      invoicerepo.Repository
	customers customerGetter
	readings  readingGetter
	renderer  Renderer
	mailer    mail.Sender
	logger    *log.Logger
	now       func() time.Time
	dueDays   int
	company   string
	mailFrom  string
}

// New creates a Service.
func New(repo invoicerepo.Repository, customers customerGetter, readings readingGetter, opts Options) *Service {
	s := &Service{
		repo:      repo,
		customers: customers,
		readings:  readings,
		renderer:  opts.Renderer,
		mailer:    opts.Mailer,
		logger:    opts.Logger,
		now:       opts.Now,
		dueDays:   opts.DueDays,
		company:   opts.CompanyName,
		mailFrom:  opts.MailFrom,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.dueDays <= 0 {
		s.dueDays = 30
	}
	if s.company == "" {
		s.company = "Aguas del Valle"
	}
	if s.renderer == nil {
		s.renderer = render.NewInvoicePDF(s.company)
	}
	if s.mailer == nil {
		s.mailer = mail.NewLogSender(s.logger)
	}
	return s
}

// GenerateInput identifies the reading to bill. IssuedOn defaults to today,
// DueOn to IssuedOn plus the configured number of days. Number is normally
// left empty so the monthly sequence assigns one.
type GenerateInput struct {
	CustomerID string    `json:"customerId"`
	ReadingID  string    `json:"readingId"`
	IssuedOn   time.Time `json:"issuedOn"`
	DueOn      time.Time `json:"dueOn"`
	Number     string    `json:"number"`
}

// Generate prices the reading and stores a pending invoice.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*domain.Invoice, error) {
	customer, err := s.customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer %s: %w", in.CustomerID, err)
	}
	reading, err := s.readings.GetByID(ctx, in.ReadingID)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in.ReadingID, err)
	}
	if reading.CustomerID != customer.ID {
		return nil, domain.ErrReadingMismatch
	}
	if !reading.ConsumptionM3.Valid {
		return nil, domain.ErrConsumptionUnknown
	}

	issued := in.IssuedOn
	if issued.IsZero() {
		issued = s.now()
	}
	issued = dateOnly(issued)
	due := in.DueOn
	if due.IsZero() {
		due = issued.AddDate(0, 0, s.dueDays)
	}
	due = dateOnly(due)
	if due.Before(issued) {
		return nil, domain.ValidationError{Field: "dueOn", Message: "due date cannot be before the issue date"}
	}

	inv := domain.Invoice{
		CustomerID: customer.ID,
		ReadingID:  reading.ID,
		IssuedOn:   issued,
		DueOn:      due,
		Amount:     domain.InvoiceAmount(reading.ConsumptionM3.Decimal),
		State:      domain.InvoicePending,
		Number:     strings.TrimSpace(in.Number),
	}

	if inv.Number != "" {
		if y, m, _, ok := domain.ParseInvoiceNumber(inv.Number); ok {
			// the counter for that month skips this slot only after a collision
			s.logger.Printf("invoice: supplied number %s occupies the %04d-%02d sequence", inv.Number, y, int(m))
		}
		created, err := s.repo.Create(ctx, inv)
		if err != nil {
			return nil, err
		}
		s.logger.Printf("invoice: issued %s customer=%s amount=%s (supplied number)", created.Number, created.CustomerID, created.Amount.StringFixed(2))
		return created, nil
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		seq, err := s.repo.NextSequence(ctx, issued)
		if err != nil {
			return nil, fmt.Errorf("next invoice sequence: %w", err)
		}
		inv.Number, err = domain.FormatInvoiceNumber(issued.Year(), issued.Month(), seq)
		if err != nil {
			return nil, err
		}
		created, err := s.repo.Create(ctx, inv)
		if err == nil {
			s.logger.Printf("invoice: issued %s customer=%s amount=%s", created.Number, created.CustomerID, created.Amount.StringFixed(2))
			return created, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		s.logger.Printf("invoice: number %s taken, retrying (attempt %d)", inv.Number, attempt)
	}
	return nil, fmt.Errorf("assign invoice number after %d attempts: %w", maxNumberAttempts, domain.ErrAlreadyExists)
}

// Get returns one invoice.
func (s *Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns invoices newest first, optionally restricted to one state.
func (s *Service) List(ctx context.Context, state *domain.InvoiceState, limit int) ([]domain.Invoice, error) {
	return s.repo.List(ctx, invoicerepo.ListFilter{State: state, Limit: limit})
}

// ListByCustomer returns one customer's invoices newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Invoice, error) {
	return s.repo.ListByCustomer(ctx, customerID, limit)
}

// Delete removes an invoice. Its number is not reused.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ChangeState applies an administrative state change. An unrecognised target
// leaves the invoice untouched and reports changed=false without error, as
// does requesting the state the invoice is already in.
func (s *Service) ChangeState(ctx context.Context, id, target string) (*domain.Invoice, bool, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	to, ok := domain.ParseInvoiceState(target)
	if !ok {
		s.logger.Printf("invoice: ignoring unknown state %q for %s", target, inv.Number)
		return inv, false, nil
	}
	if to == inv.State {
		return inv, false, nil
	}
	if inv.State.Terminal() {
		return inv, false, fmt.Errorf("%w: %s is %s and can no longer change", domain.ErrInvalidTransition, inv.Number, inv.State)
	}
	if !domain.CanTransition(inv.State, to) {
		return inv, false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, inv.State, to)
	}
	updated, err := s.repo.UpdateState(ctx, id, inv.State, to)
	if err != nil {
		return nil, false, err
	}
	s.logger.Printf("invoice: %s %s -> %s", updated.Number, inv.State, to)
	return updated, true, nil
}

// Document loads the invoice with its customer and reading.
func (s *Service) Document(ctx context.Context, id string) (*domain.InvoiceDocument, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("customer of %s: %w", inv.Number, err)
	}
	reading, err := s.readings.GetByID(ctx, inv.ReadingID)
	if err != nil {
		return nil, fmt.Errorf("reading of %s: %w", inv.Number, err)
	}
	return &domain.InvoiceDocument{Invoice: *inv, Customer: *customer, Reading: *reading}, nil
}

// RenderPDF returns the printable invoice and its file name.
func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	doc, err := s.Document(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.render(*doc)
	if err != nil {
		return nil, "", err
	}
	return data, render.FileName(doc.Invoice), nil
}

// Send mails the invoice PDF to the customer and returns the document that
// was delivered. A failure here never affects the stored invoice.
func (s *Service) Send(ctx context.Context, id string) (*domain.InvoiceDocument, error) {
	doc, err := s.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := s.render(*doc)
	if err != nil {
		return nil, err
	}
	msg := mail.Message{
		From:    s.mailFrom,
		To:      []string{doc.Customer.Email},
		Subject: fmt.Sprintf("Boleta de Agua - %s", doc.Invoice.Number),
		Body:    invoiceBody(*doc, s.company),
		Attachments: []mail.Attachment{{
			Name:        render.FileName(doc.Invoice),
			ContentType: "application/pdf",
			Data:        data,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Printf("invoice: send %s to %s failed: %v", doc.Invoice.Number, doc.Customer.Email, err)
		return nil, fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}
	s.logger.Printf("invoice: sent %s to %s", doc.Invoice.Number, doc.Customer.Email)
	return doc, nil
}

func (s *Service) render(doc domain.InvoiceDocument) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.renderer.RenderInvoice(&buf, doc); err != nil {
		s.logger.Printf("invoice: render %s failed: %v", doc.Invoice.Number, err)
		return nil, fmt.Errorf("%w: render: %v", domain.ErrDelivery, err)
	}
	return buf.Bytes(), nil
}

func invoiceBody(doc domain.InvoiceDocument, company string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Estimado/a %s,\n\n", doc.Customer.Name)
	b.WriteString("Adjunto encontrará su boleta de agua correspondiente al período.\n\n")
	b.WriteString("Detalles:\n")
	fmt.Fprintf(&b, "- Número de Boleta: %s\n", doc.Invoice.Number)
	fmt.Fprintf(&b, "- Fecha de Emisión: %s\n", doc.Invoice.IssuedOn.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Fecha de Vencimiento: %s\n", doc.Invoice.DueOn.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Monto: %s\n\n", render.FormatCLP(doc.Invoice.Amount))
	b.WriteString("Gracias por su preferencia.\n\n")
	b.WriteString(company)
	b.WriteString("\n")
	return b.String()
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
